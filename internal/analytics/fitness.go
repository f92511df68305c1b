package analytics

import (
	"math"
	"time"

	"github.com/claude/trainload/internal/models"
)

// FitnessConfig holds the two-compartment model constants.
type FitnessConfig struct {
	Window           int     `json:"window"`
	MinSessions      int     `json:"minSessions"`
	TauFitness       float64 `json:"tauFitness"`
	TauFatigue       float64 `json:"tauFatigue"`
	KFitness         float64 `json:"kFitness"`
	KFatigue         float64 `json:"kFatigue"`
	DefaultIntensity float64 `json:"defaultIntensity"`
	LoadUnit         float64 `json:"loadUnit"`
}

// DefaultFitnessConfig returns the calibrated defaults.
func DefaultFitnessConfig() FitnessConfig {
	return FitnessConfig{
		Window:           14,
		MinSessions:      3,
		TauFitness:       42,
		TauFatigue:       7,
		KFitness:         1.0,
		KFatigue:         2.0,
		DefaultIntensity: 0.75,
		LoadUnit:         1000,
	}
}

// Impulse is one session's training stimulus at a point in time.
type Impulse struct {
	At    time.Time
	Value float64
}

// ffState is the fold accumulator.
type ffState struct {
	fitness  float64
	fatigue  float64
	last     time.Time
	sessions int
}

const maxCompartment = 1e6

// SessionImpulse returns the intensity-weighted volume of a session in
// LoadUnit units.
func SessionImpulse(s models.WorkoutSession, cfg FitnessConfig) float64 {
	var impulse float64
	var n int
	for _, set := range s.Sets {
		if !set.Valid() {
			continue
		}
		impulse += set.Volume() * intensity(set.RPE, cfg.DefaultIntensity)
		n++
	}
	if n == 0 {
		impulse = s.Load() * cfg.DefaultIntensity
	}
	if cfg.LoadUnit > 0 {
		impulse /= cfg.LoadUnit
	}
	return clamp(impulse, 0, maxCompartment)
}

func intensity(rpe *float64, fallback float64) float64 {
	if rpe == nil || !isFinite(*rpe) {
		return fallback
	}
	return clamp(*rpe, 1, 10) / 10
}

// step advances the accumulator by one impulse. A nil prev starts the fold.
func step(prev *ffState, imp Impulse, cfg FitnessConfig) *ffState {
	if prev == nil {
		return &ffState{
			fitness:  clamp(cfg.KFitness*imp.Value, 0, maxCompartment),
			fatigue:  clamp(cfg.KFatigue*imp.Value, 0, maxCompartment),
			last:     imp.At,
			sessions: 1,
		}
	}
	dt := math.Max(0, daysBetween(prev.last, imp.At))
	next := decay(*prev, dt, cfg)
	next.fitness = clamp(next.fitness+cfg.KFitness*imp.Value, 0, maxCompartment)
	next.fatigue = clamp(next.fatigue+cfg.KFatigue*imp.Value, 0, maxCompartment)
	next.last = imp.At
	next.sessions++
	return &next
}

func decay(s ffState, dt float64, cfg FitnessConfig) ffState {
	s.fitness *= math.Exp(-dt / cfg.TauFitness)
	s.fatigue *= math.Exp(-dt / cfg.TauFatigue)
	return s
}

// reduceImpulses folds impulses in order into the model state. It returns nil for
// an empty sequence.
func reduceImpulses(impulses []Impulse, cfg FitnessConfig) *ffState {
	var acc *ffState
	for _, imp := range impulses {
		acc = step(acc, imp, cfg)
	}
	return acc
}

// SimulateFitnessFatigue runs the model over the most recent Window
// sessions and reads it out at asOf. It returns nil when fewer than
// MinSessions sessions carry a positive impulse.
func SimulateFitnessFatigue(sessions []models.WorkoutSession, cfg FitnessConfig, asOf time.Time) *models.FitnessFatigueState {
	var impulses []Impulse
	for _, s := range sessions {
		ts, ok := s.Timestamp()
		if !ok {
			continue
		}
		v := SessionImpulse(s, cfg)
		if v <= 0 {
			continue
		}
		impulses = append(impulses, Impulse{At: ts, Value: v})
	}
	if cfg.Window > 0 && len(impulses) > cfg.Window {
		impulses = impulses[len(impulses)-cfg.Window:]
	}
	if len(impulses) < max(cfg.MinSessions, 1) {
		return nil
	}

	acc := reduceImpulses(impulses, cfg)
	if acc == nil {
		return nil
	}
	return readout(*acc, cfg, asOf)
}

func readout(s ffState, cfg FitnessConfig, asOf time.Time) *models.FitnessFatigueState {
	if asOf.Before(s.last) {
		asOf = s.last
	}
	now := decay(s, daysBetween(s.last, asOf), cfg)

	net := 50.0
	if now.fitness > 0 {
		net = 50 + 50*(now.fitness-now.fatigue)/now.fitness
	}
	net = clamp(net, 0, 100)

	return &models.FitnessFatigueState{
		CurrentFitness:     clamp(now.fitness, 0, maxCompartment),
		CurrentFatigue:     clamp(now.fatigue, 0, maxCompartment),
		NetPerformance:     net,
		Readiness:          Readiness(net),
		SessionsConsidered: s.sessions,
		LastSession:        s.last,
		AsOf:               asOf,
	}
}

// Readiness buckets a 0–100 performance score.
func Readiness(score float64) string {
	switch {
	case score >= 70:
		return models.ReadinessExcellent
	case score >= 60:
		return models.ReadinessGood
	case score >= 40:
		return models.ReadinessModerate
	default:
		return models.ReadinessPoor
	}
}
