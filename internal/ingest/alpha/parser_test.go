package alpha

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `
"Legs · Day 2 · Week 4 · Push-Pull-Legs";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
3;115;10;-
"2. Sumo Squats · Smith machine · 10 reps";"WU1 · 35 kg · 8 reps"
#;KG;REPS;RIR
1;70;8;1
2;70;12;0,5
"3. Hyperextensions on Roman Chair · Bodyweight · 10 reps";"WU1 · +0 kg · 8 reps"
#;KG;REPS;RIR
1;+35;10;0
2;+35;9;1
"4. Hanging Leg Raises · Bodyweight · 12 reps · 2 dropsets"
#;KG;REPS;RIR
1;+0;12;1
some free-text note the app appends

"Push · Day 1 · Week 4 · Push-Pull-Legs";"2026-02-17 17:04 h";"45 min"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps<br>WU2 · 47,5 kg · 8 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;100;6;
`

// TestParseCompleteSessions verifies parsing a multi-session CSV: exercise
// headers with and without equipment modifiers, warmups and working sets.
func TestParseCompleteSessions(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	s1 := sessions[0]
	if s1.Name != "Legs · Day 2 · Week 4 · Push-Pull-Legs" {
		t.Errorf("s1.Name = %q", s1.Name)
	}
	if want := time.Date(2026, 2, 19, 4, 54, 0, 0, time.UTC); !s1.Date.Equal(want) {
		t.Errorf("s1.Date = %v, want %v", s1.Date, want)
	}
	if len(s1.Exercises) != 4 {
		t.Fatalf("s1 exercises = %d, want 4", len(s1.Exercises))
	}

	tests := []struct {
		name       string
		equipment  string
		targetReps int
		sets       int
	}{
		{"Hack Squats", "Machine", 8, 5},
		{"Sumo Squats", "Smith machine", 10, 3},
		{"Hyperextensions on Roman Chair", "Bodyweight", 10, 3},
		{"Hanging Leg Raises", "Bodyweight", 12, 1},
	}
	for i, tt := range tests {
		ex := s1.Exercises[i]
		if ex.Name != tt.name || ex.Equipment != tt.equipment {
			t.Errorf("exercise %d = %q/%q, want %q/%q", i, ex.Name, ex.Equipment, tt.name, tt.equipment)
		}
		if ex.TargetReps != tt.targetReps {
			t.Errorf("%s target reps = %d, want %d", tt.name, ex.TargetReps, tt.targetReps)
		}
		if len(ex.Sets) != tt.sets {
			t.Errorf("%s sets = %d, want %d", tt.name, len(ex.Sets), tt.sets)
		}
	}

	s2 := sessions[1]
	if s2.Duration != "45 min" || s2.Date.Hour() != 17 {
		t.Errorf("s2 = %q at %v", s2.Duration, s2.Date)
	}
	if sets := s2.Exercises[0].Sets; len(sets) != 4 || sets[3].RIR != nil {
		t.Errorf("s2 bench sets = %+v, want 4 with an untracked last RIR", sets)
	}
}

// TestUntrackedRIR verifies that "-" and empty RIR columns stay nil while
// numeric ones, including European halves, are kept.
func TestUntrackedRIR(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"-", nil},
		{"", nil},
		{" - ", nil},
		{"x", nil},
		{"0", ptr(0)},
		{"2", ptr(2)},
		{"0,5", ptr(0.5)},
	}
	for _, tt := range tests {
		got := parseRIR(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseRIR(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseRIR(%q) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

// TestParseWeight verifies European decimals and the +N bodyweight notation.
func TestParseWeight(t *testing.T) {
	tests := []struct {
		in     string
		weight float64
		isBW   bool
	}{
		{"102,5", 102.5, false},
		{"100", 100, false},
		{"+35", 35, true},
		{"+0", 0, true},
		{"+2,5", 2.5, true},
	}
	for _, tt := range tests {
		w, bw := parseWeight(tt.in)
		if w != tt.weight || bw != tt.isBW {
			t.Errorf("parseWeight(%q) = %v, %v; want %v, %v", tt.in, w, bw, tt.weight, tt.isBW)
		}
	}
}

// TestWarmupParsing verifies warmup extraction from the exercise header's
// second field.
func TestWarmupParsing(t *testing.T) {
	sets := parseWarmups("WU1 · 37,5 kg · 9 reps<br>WU2 · +0 kg · 7 reps<br>garbage")
	if len(sets) != 2 {
		t.Fatalf("warmup sets = %d, want 2", len(sets))
	}
	if sets[0].WeightKg != 37.5 || sets[0].Reps != 9 || !sets[0].IsWarmup {
		t.Errorf("wu1 = %+v", sets[0])
	}
	if !sets[1].IsBodyweightPlus || sets[1].WeightKg != 0 {
		t.Errorf("wu2 = %+v", sets[1])
	}
}

// TestParseDuration verifies both duration spellings the export uses.
func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1:02 hr", 62 * time.Minute, true},
		{"0:45 hr", 45 * time.Minute, true},
		{"45 min", 45 * time.Minute, true},
		{"soon", 0, false},
		{"1 hr", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDuration(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseDuration(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// TestParseErrors verifies that structure errors are reported.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"exercise without session", `"1. Bench Press · Barbell · 6 reps"`},
		{"set without exercise", "\"Push\";\"2026-02-17 5:04 h\";\"1:12 hr\"\n1;100;5;1"},
	}
	for _, tt := range tests {
		if _, err := Parse(strings.NewReader(tt.in)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

// TestEmptyInput verifies that empty input returns no sessions without error.
func TestEmptyInput(t *testing.T) {
	sessions, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions = %d, want 0", len(sessions))
	}
}

func ptr(f float64) *float64 { return &f }
