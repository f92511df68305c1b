package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/claude/trainload/internal/models"
)

// HierarchicalConfig holds the partial-pooling constants.
type HierarchicalConfig struct {
	MinSessions int `json:"minSessions"`
	// PriorStrength is how many sets the population prior is worth.
	PriorStrength       float64 `json:"priorStrength"`
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
	// MaxFatigueRate is the per-set decline at which resistance reaches zero.
	MaxFatigueRate      float64 `json:"maxFatigueRate"`
	DefaultPriorRate    float64 `json:"defaultPriorRate"`
	DefaultVariance     float64 `json:"defaultVariance"`
	VarianceFloor       float64 `json:"varianceFloor"`
	RecoverySensitivity float64 `json:"recoverySensitivity"`
	RecoveryPairPrior   float64 `json:"recoveryPairPrior"`
	MaxRecoveryGapDays  int64   `json:"maxRecoveryGapDays"`
}

// DefaultHierarchicalConfig returns the documented defaults.
func DefaultHierarchicalConfig() HierarchicalConfig {
	return HierarchicalConfig{
		MinSessions:         3,
		PriorStrength:       20,
		ConfidenceThreshold: 50,
		MaxFatigueRate:      0.20,
		DefaultPriorRate:    0.05,
		DefaultVariance:     0.01,
		VarianceFloor:       1e-4,
		RecoverySensitivity: 5,
		RecoveryPairPrior:   5,
		MaxRecoveryGapDays:  14,
	}
}

const (
	minDeclineRate  = -0.25
	maxDeclineRate  = 0.5
	maxRecoveryRate = 3
)

type weightedRate struct {
	rate   float64
	weight float64
}

type topSet struct {
	at   time.Time
	e1rm float64
}

type exerciseHistory struct {
	declines []weightedRate
	sets     int
	sessions int
	tops     []topSet
}

// FitHierarchical fits per-exercise fatigue rates shrunk toward a
// sample-size-weighted prior and derives user-level traits. It returns nil
// when fewer than MinSessions training days are given. Days come from
// History, so sessions carrying only a TotalVolumeLoad do not count here even
// though SimulateFitnessFatigue counts them as impulses.
func FitHierarchical(days []TrainingDay, cfg HierarchicalConfig) *models.HierarchicalFatigueModel {
	if len(days) < max(cfg.MinSessions, 1) {
		return nil
	}

	per := make(map[string]*exerciseHistory)
	var totalSets int
	for _, d := range days {
		for _, ex := range d.Exercises {
			if len(ex.Sets) == 0 {
				continue
			}
			h := per[ex.ExerciseID]
			if h == nil {
				h = &exerciseHistory{}
				per[ex.ExerciseID] = h
			}
			h.sets += len(ex.Sets)
			h.sessions++
			totalSets += len(ex.Sets)
			if rate, ok := sessionDecline(ex.Sets); ok {
				h.declines = append(h.declines, weightedRate{rate: rate, weight: float64(len(ex.Sets) - 1)})
			}
			h.tops = append(h.tops, topSet{at: d.Date, e1rm: topE1RM(ex.Sets)})
		}
	}

	ids := make([]string, 0, len(per))
	for id := range per {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Step 1: raw per-exercise rate and sampling variance.
	type rawEstimate struct {
		rate     float64
		variance float64
	}
	raws := make(map[string]rawEstimate)
	for _, id := range ids {
		h := per[id]
		if len(h.declines) == 0 {
			continue
		}
		mean, variance := weightedMeanVar(h.declines)
		if len(h.declines) == 1 {
			variance = cfg.DefaultVariance
		} else {
			variance /= float64(len(h.declines))
		}
		raws[id] = rawEstimate{rate: mean, variance: math.Max(variance, cfg.VarianceFloor)}
	}

	// Step 2: population prior.
	prior, priorVar := cfg.DefaultPriorRate, cfg.DefaultVariance
	var wsum, msum float64
	for _, id := range ids {
		if r, ok := raws[id]; ok {
			n := float64(per[id].sets)
			msum += n * r.rate
			wsum += n
		}
	}
	if wsum > 0 {
		prior = msum / wsum
		var vs float64
		for _, id := range ids {
			if r, ok := raws[id]; ok {
				d := r.rate - prior
				vs += float64(per[id].sets) * d * d
			}
		}
		priorVar = math.Max(vs/wsum, cfg.VarianceFloor)
	}

	// Step 3: shrinkage.
	factors := make(map[string]models.ExerciseFatigueFactor, len(ids))
	var shrunkSum, shrunkWeight float64
	for _, id := range ids {
		h := per[id]
		n := float64(h.sets)
		w := n / (n + cfg.PriorStrength)
		f := models.ExerciseFatigueFactor{
			BaselineFatigueRate: prior,
			Variance:            priorVar,
			SampleSize:          h.sets,
			Sessions:            h.sessions,
		}
		if r, ok := raws[id]; ok {
			rate := r.rate
			f.RawFatigueRate = &rate
			f.BaselineFatigueRate = r.rate*w + prior*(1-w)
			f.Variance = w*w*r.variance + (1-w)*(1-w)*priorVar
		}
		factors[id] = f
		shrunkSum += n * f.BaselineFatigueRate
		shrunkWeight += n
	}

	// Step 4: user traits.
	avgRate := prior
	if shrunkWeight > 0 {
		avgRate = shrunkSum / shrunkWeight
	}
	resistance := 100.0
	if cfg.MaxFatigueRate > 0 {
		resistance = 100 * (1 - avgRate/cfg.MaxFatigueRate)
	}

	// Step 5: confidence saturates with total sets.
	confidence := 0.0
	if cfg.ConfidenceThreshold > 0 {
		confidence = 1 - 1/(1+float64(totalSets)/cfg.ConfidenceThreshold)
	}

	return &models.HierarchicalFatigueModel{
		UserFatigueResistance:   clamp(resistance, 0, 100),
		UserRecoveryRate:        recoveryRate(per, ids, cfg),
		UserConfidence:          clamp(confidence, 0, 1),
		PriorFatigueRate:        prior,
		PriorVariance:           priorVar,
		TotalSets:               totalSets,
		SessionCount:            len(days),
		ExerciseSpecificFactors: factors,
	}
}

// e1RM is the Epley estimate with reps in reserve added back when RPE is known.
func e1RM(s models.SetRecord) float64 {
	reps := s.Reps
	if s.RPE != nil && isFinite(*s.RPE) {
		reps += clamp(10-*s.RPE, 0, 5)
	}
	return s.Weight * (1 + reps/30)
}

func topE1RM(sets []models.SetRecord) float64 {
	var top float64
	for _, s := range sets {
		top = math.Max(top, e1RM(s))
	}
	return top
}

// sessionDecline regresses relative e1RM on set index and returns the
// per-set decline. It needs at least two sets.
func sessionDecline(sets []models.SetRecord) (float64, bool) {
	n := len(sets)
	if n < 2 {
		return 0, false
	}
	p0 := e1RM(sets[0])
	if p0 <= 0 {
		return 0, false
	}
	xMean := float64(n-1) / 2
	var yMean float64
	ys := make([]float64, n)
	for i, s := range sets {
		ys[i] = e1RM(s) / p0
		yMean += ys[i]
	}
	yMean /= float64(n)

	var sxy, sxx float64
	for i, y := range ys {
		dx := float64(i) - xMean
		sxy += dx * (y - yMean)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0, false
	}
	return clamp(-sxy/sxx, minDeclineRate, maxDeclineRate), true
}

func weightedMeanVar(obs []weightedRate) (mean, variance float64) {
	var wsum float64
	for _, o := range obs {
		mean += o.weight * o.rate
		wsum += o.weight
	}
	if wsum == 0 {
		return 0, 0
	}
	mean /= wsum
	for _, o := range obs {
		d := o.rate - mean
		variance += o.weight * d * d
	}
	return mean, variance / wsum
}

// recoveryRate compares top-set e1RM across consecutive sessions of the same
// exercise and maps the mean rebound to a rate centred at 1.0.
func recoveryRate(per map[string]*exerciseHistory, ids []string, cfg HierarchicalConfig) float64 {
	var sum float64
	var pairs int
	for _, id := range ids {
		tops := per[id].tops
		for k := 1; k < len(tops); k++ {
			prev, cur := tops[k-1], tops[k]
			gap := utcDay(cur.at) - utcDay(prev.at)
			if gap < 1 || gap > cfg.MaxRecoveryGapDays || prev.e1rm <= 0 {
				continue
			}
			sum += cur.e1rm / prev.e1rm
			pairs++
		}
	}
	if pairs == 0 {
		return 1.0
	}
	raw := 1 + cfg.RecoverySensitivity*(sum/float64(pairs)-1)
	w := float64(pairs) / (float64(pairs) + cfg.RecoveryPairPrior)
	return clamp(1+w*(raw-1), 0, maxRecoveryRate)
}

// ExerciseRates flattens the model's factors, most fatiguing first.
func ExerciseRates(model *models.HierarchicalFatigueModel, names map[string]string) []models.ExerciseRate {
	if model == nil {
		return nil
	}
	rates := make([]models.ExerciseRate, 0, len(model.ExerciseSpecificFactors))
	for id, f := range model.ExerciseSpecificFactors {
		name := names[id]
		if name == "" {
			name = id
		}
		rates = append(rates, models.ExerciseRate{
			ExerciseID:          id,
			ExerciseName:        name,
			BaselineFatigueRate: f.BaselineFatigueRate,
			Variance:            f.Variance,
			SampleSize:          f.SampleSize,
		})
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].BaselineFatigueRate != rates[j].BaselineFatigueRate {
			return rates[i].BaselineFatigueRate > rates[j].BaselineFatigueRate
		}
		return rates[i].ExerciseID < rates[j].ExerciseID
	})
	return rates
}
