package models

import (
	"math"
	"time"
)

// AlphaSession is one workout block of an Alpha Progression CSV export,
// before conversion to WorkoutSession.
type AlphaSession struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []AlphaExercise
}

// AlphaExercise groups the sets logged for one exercise.
type AlphaExercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []AlphaSet
}

// AlphaSet is a single logged set. RIR is nil when the export left the
// column untracked ("-" or empty). For bodyweight-plus sets WeightKg is the
// added load only.
type AlphaSet struct {
	Number           int
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              *float64
	IsWarmup         bool
}

// RPE maps reps in reserve onto the 0-10 RPE scale as 10 - RIR. Nil when
// RIR was not tracked.
func (s AlphaSet) RPE() *float64 {
	if s.RIR == nil || math.IsNaN(*s.RIR) {
		return nil
	}
	rpe := math.Min(10, math.Max(0, 10-*s.RIR))
	return &rpe
}

// SetType is warmup for warmup rows and straight otherwise.
func (s AlphaSet) SetType() SetType {
	if s.IsWarmup {
		return SetTypeWarmup
	}
	return SetTypeStraight
}

// WorkingSets counts the non-warmup sets across all exercises.
func (s AlphaSession) WorkingSets() int {
	n := 0
	for _, ex := range s.Exercises {
		for _, set := range ex.Sets {
			if !set.IsWarmup {
				n++
			}
		}
	}
	return n
}
