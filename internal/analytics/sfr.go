package analytics

import (
	"math"
	"sort"

	"github.com/claude/trainload/internal/models"
)

// SFRConfig controls stimulus-to-fatigue ranking.
type SFRConfig struct {
	Limit int `json:"limit"`
	// ReferenceRate is the fatigue rate that scores an SFR of 100 for a
	// plain first set.
	ReferenceRate  float64 `json:"referenceRate"`
	MinFatigueRate float64 `json:"minFatigueRate"`
	SetCostGrowth  float64 `json:"setCostGrowth"`
	MaxSFR         float64 `json:"maxSFR"`
}

// DefaultSFRConfig returns the leaderboard defaults.
func DefaultSFRConfig() SFRConfig {
	return SFRConfig{
		Limit:          20,
		ReferenceRate:  0.05,
		MinFatigueRate: 0.005,
		SetCostGrowth:  0.1,
		MaxSFR:         1000,
	}
}

type sfrAccumulator struct {
	sum, best, worst float64
	n                int
	sessions         int
}

// RankEfficiency scores every valid set's stimulus against its fatigue cost
// and returns per-exercise summaries, best average first. A nil model falls
// back to an RPE-based per-set fatigue proxy.
func RankEfficiency(days []TrainingDay, model *models.HierarchicalFatigueModel, cfg SFRConfig) []models.SFRInsight {
	acc := make(map[string]*sfrAccumulator)
	for _, d := range days {
		for _, ex := range d.Exercises {
			if len(ex.Sets) == 0 {
				continue
			}
			a := acc[ex.ExerciseID]
			if a == nil {
				a = &sfrAccumulator{best: math.Inf(-1), worst: math.Inf(1)}
				acc[ex.ExerciseID] = a
			}
			a.sessions++
			for k, set := range ex.Sets {
				sfr := setSFR(set, k, fatigueRate(ex.ExerciseID, set, model), cfg)
				a.sum += sfr
				a.n++
				a.best = math.Max(a.best, sfr)
				a.worst = math.Min(a.worst, sfr)
			}
		}
	}

	names := exerciseNames(days)
	insights := make([]models.SFRInsight, 0, len(acc))
	for id, a := range acc {
		if a.n == 0 {
			continue
		}
		avg := a.sum / float64(a.n)
		name := names[id]
		if name == "" {
			name = id
		}
		insights = append(insights, models.SFRInsight{
			ExerciseID:     id,
			ExerciseName:   name,
			AvgSFR:         avg,
			BestSFR:        a.best,
			WorstSFR:       a.worst,
			TimesPerformed: a.sessions,
			Interpretation: InterpretSFR(avg),
		})
	}
	sort.Slice(insights, func(i, j int) bool {
		if insights[i].AvgSFR != insights[j].AvgSFR {
			return insights[i].AvgSFR > insights[j].AvgSFR
		}
		return insights[i].ExerciseID < insights[j].ExerciseID
	})

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultSFRConfig().Limit
	}
	if len(insights) > limit {
		insights = insights[:limit]
	}
	return insights
}

func fatigueRate(exerciseID string, set models.SetRecord, model *models.HierarchicalFatigueModel) float64 {
	if model != nil {
		if f, ok := model.ExerciseSpecificFactors[exerciseID]; ok {
			return f.BaselineFatigueRate
		}
		return model.PriorFatigueRate
	}
	if set.RPE != nil {
		return 0.05 * clamp(*set.RPE, 1, 10) / 7.5
	}
	return 0.05
}

// proximity boosts sets taken close to failure.
func proximity(set models.SetRecord) float64 {
	if set.SetType == models.SetTypeFailure {
		return 1.5
	}
	if set.RPE == nil {
		return 1.0
	}
	switch {
	case *set.RPE >= 9.5:
		return 1.5
	case *set.RPE >= 8:
		return 1.25
	default:
		return 1.0
	}
}

func setSFR(set models.SetRecord, index int, rate float64, cfg SFRConfig) float64 {
	rate = math.Max(rate, cfg.MinFatigueRate)
	volume := set.Volume()
	stimulus := volume * proximity(set)
	cost := volume * rate * (1 + cfg.SetCostGrowth*float64(index)) / (100 * cfg.ReferenceRate)
	if cost <= 0 {
		return 0
	}
	return clamp(stimulus/cost, 0, cfg.MaxSFR)
}

// InterpretSFR buckets an average SFR.
func InterpretSFR(avg float64) string {
	switch {
	case avg > 200:
		return models.SFRExcellent
	case avg > 150:
		return models.SFRGood
	case avg > 100:
		return models.SFRModerate
	case avg > 50:
		return models.SFRPoor
	default:
		return models.SFRExcessive
	}
}
