package models

import (
	"math"
	"time"
)

// SetType classifies a set. Only warmups are excluded from load.
type SetType string

const (
	SetTypeStraight SetType = "straight"
	SetTypeWarmup   SetType = "warmup"
	SetTypeDropset  SetType = "dropset"
	SetTypeFailure  SetType = "failure"
	SetTypeAMRAP    SetType = "amrap"
)

// Sanity bounds for a single set. Values at or above are treated as malformed.
const (
	MaxSetWeightKg = 2000
	MaxSetReps     = 200
)

// SetRecord is one performed set in the canonical shape shared by every source.
type SetRecord struct {
	ExerciseID   string   `json:"exerciseId"`
	ExerciseName string   `json:"exerciseName,omitempty"`
	Weight       float64  `json:"actualWeight"`
	Reps         float64  `json:"actualReps"`
	RPE          *float64 `json:"actualRPE,omitempty"`
	Completed    bool     `json:"completed"`
	SetType      SetType  `json:"setType,omitempty"`
}

// Malformed reports whether the set carries values that must never reach
// arithmetic: non-finite, negative or out of bounds.
func (s SetRecord) Malformed() bool {
	if !isFinite(s.Weight) || !isFinite(s.Reps) {
		return true
	}
	if s.Weight < 0 || s.Reps < 0 {
		return true
	}
	if s.Weight >= MaxSetWeightKg || s.Reps >= MaxSetReps {
		return true
	}
	if s.RPE != nil && !isFinite(*s.RPE) {
		return true
	}
	return false
}

// Valid reports whether the set counts toward load and fatigue.
func (s SetRecord) Valid() bool {
	if s.Malformed() || s.SetType == SetTypeWarmup || !s.Completed {
		return false
	}
	return s.Weight > 0 && s.Reps > 0
}

// Volume is weight × reps.
func (s SetRecord) Volume() float64 {
	return s.Weight * s.Reps
}

// WorkoutSession is the canonical session record. Zero times mean absent.
type WorkoutSession struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId,omitempty"`
	Name            string      `json:"name,omitempty"`
	Date            time.Time   `json:"date"`
	StartTime       time.Time   `json:"startTime,omitzero"`
	EndTime         time.Time   `json:"endTime,omitzero"`
	TotalVolumeLoad *float64    `json:"totalVolumeLoad,omitempty"`
	Source          string      `json:"source,omitempty"`
	Sets            []SetRecord `json:"sets"`
}

// Timestamp returns EndTime, else StartTime, else Date. ok is false when
// the session carries no time at all.
func (s WorkoutSession) Timestamp() (time.Time, bool) {
	switch {
	case !s.EndTime.IsZero():
		return s.EndTime, true
	case !s.StartTime.IsZero():
		return s.StartTime, true
	case !s.Date.IsZero():
		return s.Date, true
	}
	return time.Time{}, false
}

// ValidSets returns the sets that count toward load, in recorded order.
func (s WorkoutSession) ValidSets() []SetRecord {
	var out []SetRecord
	for _, set := range s.Sets {
		if set.Valid() {
			out = append(out, set)
		}
	}
	return out
}

// Load returns Σ weight×reps over valid sets, falling back to a positive
// TotalVolumeLoad when no valid set exists.
func (s WorkoutSession) Load() float64 {
	var load float64
	var n int
	for _, set := range s.Sets {
		if set.Valid() {
			load += set.Volume()
			n++
		}
	}
	if n > 0 {
		return load
	}
	if s.TotalVolumeLoad != nil && isFinite(*s.TotalVolumeLoad) && *s.TotalVolumeLoad > 0 {
		return *s.TotalVolumeLoad
	}
	return 0
}

// HasLoad reports whether the session has at least one valid set or a
// positive fallback volume.
func (s WorkoutSession) HasLoad() bool {
	return s.Load() > 0
}

// SessionBatch is the payload of the session ingest endpoint.
type SessionBatch struct {
	Sessions []WorkoutSession `json:"sessions"`
}

// TrainingLoadSample is one session's load on its timestamp.
type TrainingLoadSample struct {
	Date time.Time `json:"date"`
	Load float64   `json:"load"`
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
