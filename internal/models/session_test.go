package models

import (
	"math"
	"testing"
	"time"
)

func ptr(f float64) *float64 { return &f }

// TestSetValidity verifies which sets count toward load.
func TestSetValidity(t *testing.T) {
	tests := []struct {
		name      string
		set       SetRecord
		valid     bool
		malformed bool
	}{
		{"straight", SetRecord{Weight: 100, Reps: 5, Completed: true}, true, false},
		{"warmup", SetRecord{Weight: 60, Reps: 5, Completed: true, SetType: SetTypeWarmup}, false, false},
		{"not completed", SetRecord{Weight: 100, Reps: 5}, false, false},
		{"bodyweight zero", SetRecord{Weight: 0, Reps: 12, Completed: true}, false, false},
		{"zero reps", SetRecord{Weight: 100, Reps: 0, Completed: true}, false, false},
		{"nan weight", SetRecord{Weight: math.NaN(), Reps: 5, Completed: true}, false, true},
		{"inf reps", SetRecord{Weight: 100, Reps: math.Inf(1), Completed: true}, false, true},
		{"negative weight", SetRecord{Weight: -5, Reps: 5, Completed: true}, false, true},
		{"weight at bound", SetRecord{Weight: 2000, Reps: 1, Completed: true}, false, true},
		{"reps at bound", SetRecord{Weight: 10, Reps: 200, Completed: true}, false, true},
		{"nan rpe", SetRecord{Weight: 100, Reps: 5, Completed: true, RPE: ptr(math.NaN())}, false, true},
		{"failure type", SetRecord{Weight: 100, Reps: 5, Completed: true, SetType: SetTypeFailure}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.set.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.set.Malformed(); got != tt.malformed {
				t.Errorf("Malformed() = %v, want %v", got, tt.malformed)
			}
		})
	}
}

// TestSessionTimestampPrecedence verifies endTime > startTime > date.
func TestSessionTimestampPrecedence(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	start := date.Add(17 * time.Hour)
	end := start.Add(time.Hour)

	if ts, _ := (WorkoutSession{Date: date, StartTime: start, EndTime: end}).Timestamp(); !ts.Equal(end) {
		t.Errorf("timestamp = %v, want end %v", ts, end)
	}
	if ts, _ := (WorkoutSession{Date: date, StartTime: start}).Timestamp(); !ts.Equal(start) {
		t.Errorf("timestamp = %v, want start %v", ts, start)
	}
	if ts, _ := (WorkoutSession{Date: date}).Timestamp(); !ts.Equal(date) {
		t.Errorf("timestamp = %v, want date %v", ts, date)
	}
	if _, ok := (WorkoutSession{}).Timestamp(); ok {
		t.Error("expected no timestamp for empty session")
	}
}

// TestSessionLoad verifies valid-set volume and the total volume fallback.
func TestSessionLoad(t *testing.T) {
	s := WorkoutSession{Sets: []SetRecord{
		{Weight: 100, Reps: 10, Completed: true},
		{Weight: 60, Reps: 10, Completed: true, SetType: SetTypeWarmup},
		{Weight: 80, Reps: 8, Completed: true},
	}}
	if got := s.Load(); got != 1640 {
		t.Errorf("Load() = %v, want 1640", got)
	}

	fallback := WorkoutSession{TotalVolumeLoad: ptr(4200)}
	if got := fallback.Load(); got != 4200 {
		t.Errorf("fallback Load() = %v, want 4200", got)
	}

	bad := WorkoutSession{TotalVolumeLoad: ptr(math.Inf(1))}
	if bad.HasLoad() {
		t.Error("infinite fallback volume must not count as load")
	}
}

// TestAlphaSetConversion verifies RIR to RPE mapping and warmup typing on
// raw export sets.
func TestAlphaSetConversion(t *testing.T) {
	tests := []struct {
		name    string
		set     AlphaSet
		wantRPE *float64
		wantTyp SetType
	}{
		{"rir 2", AlphaSet{RIR: ptr(2)}, ptr(8), SetTypeStraight},
		{"failure", AlphaSet{RIR: ptr(0)}, ptr(10), SetTypeStraight},
		{"rir above 10", AlphaSet{RIR: ptr(12)}, ptr(0), SetTypeStraight},
		{"untracked", AlphaSet{}, nil, SetTypeStraight},
		{"warmup", AlphaSet{IsWarmup: true, RIR: ptr(4)}, ptr(6), SetTypeWarmup},
	}
	for _, tt := range tests {
		got := tt.set.RPE()
		switch {
		case tt.wantRPE == nil && got != nil:
			t.Errorf("%s: RPE = %v, want nil", tt.name, *got)
		case tt.wantRPE != nil && (got == nil || *got != *tt.wantRPE):
			t.Errorf("%s: RPE = %v, want %v", tt.name, got, *tt.wantRPE)
		}
		if typ := tt.set.SetType(); typ != tt.wantTyp {
			t.Errorf("%s: SetType = %q, want %q", tt.name, typ, tt.wantTyp)
		}
	}
}

// TestAlphaWorkingSets verifies warmups are excluded from the count.
func TestAlphaWorkingSets(t *testing.T) {
	s := AlphaSession{Exercises: []AlphaExercise{
		{Sets: []AlphaSet{{IsWarmup: true}, {}, {}}},
		{Sets: []AlphaSet{{}}},
	}}
	if got := s.WorkingSets(); got != 3 {
		t.Errorf("WorkingSets = %d, want 3", got)
	}
}
