package analytics

import (
	"strings"
	"time"
	"unicode"
)

// MuscleGroup is a recovery-tracked muscle group.
type MuscleGroup string

const (
	Chest      MuscleGroup = "chest"
	Back       MuscleGroup = "back"
	Shoulders  MuscleGroup = "shoulders"
	Biceps     MuscleGroup = "biceps"
	Triceps    MuscleGroup = "triceps"
	Forearms   MuscleGroup = "forearms"
	Quads      MuscleGroup = "quads"
	Hamstrings MuscleGroup = "hamstrings"
	Glutes     MuscleGroup = "glutes"
	Calves     MuscleGroup = "calves"
	Core       MuscleGroup = "core"
)

// AllMuscleGroups lists every tracked group in display order.
var AllMuscleGroups = []MuscleGroup{
	Chest, Back, Shoulders, Biceps, Triceps, Forearms,
	Quads, Hamstrings, Glutes, Calves, Core,
}

// recoveryWindows are the baseline times to full readiness.
var recoveryWindows = map[MuscleGroup]time.Duration{
	Hamstrings: 72 * time.Hour,
	Glutes:     72 * time.Hour,
	Back:       72 * time.Hour,
	Quads:      72 * time.Hour,
	Chest:      60 * time.Hour,
	Shoulders:  60 * time.Hour,
	Biceps:     36 * time.Hour,
	Triceps:    36 * time.Hour,
	Calves:     36 * time.Hour,
	Core:       36 * time.Hour,
	Forearms:   36 * time.Hour,
}

// RecoveryWindow returns the baseline recovery window for a group.
func RecoveryWindow(g MuscleGroup) time.Duration {
	if w, ok := recoveryWindows[g]; ok {
		return w
	}
	return 48 * time.Hour
}

// ExerciseMapping defines muscle targeting for a canonical exercise.
type ExerciseMapping struct {
	CanonicalName string
	Primary       []MuscleGroup
	Secondary     []MuscleGroup
	Aliases       []string
}

var abbreviations = map[string]string{
	"db":   "dumbbell",
	"bb":   "barbell",
	"kb":   "kettlebell",
	"ohp":  "overhead_press",
	"rdl":  "romanian_deadlift",
	"sldl": "stiff_leg_deadlift",
	"incl": "incline",
	"ext":  "extension",
}

var defaultExercises = []ExerciseMapping{
	{CanonicalName: "Bench Press", Primary: []MuscleGroup{Chest}, Secondary: []MuscleGroup{Triceps, Shoulders},
		Aliases: []string{"Flat Bench", "Barbell Bench Press", "Flat Bench Press", "Chest Press"}},
	{CanonicalName: "Incline Bench Press", Primary: []MuscleGroup{Chest}, Secondary: []MuscleGroup{Shoulders, Triceps},
		Aliases: []string{"Incline Press", "Incline Dumbbell Press", "Incline Barbell Press"}},
	{CanonicalName: "Dumbbell Bench Press", Primary: []MuscleGroup{Chest}, Secondary: []MuscleGroup{Triceps, Shoulders}},
	{CanonicalName: "Chest Fly", Primary: []MuscleGroup{Chest}, Aliases: []string{"Cable Fly", "Pec Deck", "Butterfly"}},
	{CanonicalName: "Dips", Primary: []MuscleGroup{Chest, Triceps}, Secondary: []MuscleGroup{Shoulders}},
	{CanonicalName: "Push Up", Primary: []MuscleGroup{Chest}, Secondary: []MuscleGroup{Triceps, Core}, Aliases: []string{"Pushups"}},
	{CanonicalName: "Deadlift", Primary: []MuscleGroup{Back, Hamstrings, Glutes}, Secondary: []MuscleGroup{Forearms, Core},
		Aliases: []string{"Conventional Deadlift", "Sumo Deadlift"}},
	{CanonicalName: "Romanian Deadlift", Primary: []MuscleGroup{Hamstrings, Glutes}, Secondary: []MuscleGroup{Back},
		Aliases: []string{"Stiff Leg Deadlift"}},
	{CanonicalName: "Barbell Row", Primary: []MuscleGroup{Back}, Secondary: []MuscleGroup{Biceps, Forearms},
		Aliases: []string{"Bent Over Row", "Pendlay Row", "Dumbbell Row", "Cable Row", "Seated Row", "T Bar Row"}},
	{CanonicalName: "Pull Up", Primary: []MuscleGroup{Back}, Secondary: []MuscleGroup{Biceps},
		Aliases: []string{"Pullups", "Chin Up", "Chinups"}},
	{CanonicalName: "Lat Pulldown", Primary: []MuscleGroup{Back}, Secondary: []MuscleGroup{Biceps},
		Aliases: []string{"Pulldown", "Lat Pulldowns"}},
	{CanonicalName: "Overhead Press", Primary: []MuscleGroup{Shoulders}, Secondary: []MuscleGroup{Triceps, Core},
		Aliases: []string{"Military Press", "Shoulder Press", "Dumbbell Shoulder Press"}},
	{CanonicalName: "Lateral Raise", Primary: []MuscleGroup{Shoulders}, Aliases: []string{"Side Raise", "Lateral Raises"}},
	{CanonicalName: "Rear Delt Fly", Primary: []MuscleGroup{Shoulders}, Secondary: []MuscleGroup{Back},
		Aliases: []string{"Reverse Fly", "Face Pull"}},
	{CanonicalName: "Bicep Curl", Primary: []MuscleGroup{Biceps}, Secondary: []MuscleGroup{Forearms},
		Aliases: []string{"Barbell Curl", "Dumbbell Curl", "Hammer Curl", "Preacher Curl", "Biceps Curl"}},
	{CanonicalName: "Triceps Extension", Primary: []MuscleGroup{Triceps},
		Aliases: []string{"Skull Crusher", "Triceps Pushdown", "Overhead Triceps Extension", "Pushdown"}},
	{CanonicalName: "Close Grip Bench Press", Primary: []MuscleGroup{Triceps}, Secondary: []MuscleGroup{Chest}},
	{CanonicalName: "Wrist Curl", Primary: []MuscleGroup{Forearms}, Aliases: []string{"Farmers Walk"}},
	{CanonicalName: "Squat", Primary: []MuscleGroup{Quads, Glutes}, Secondary: []MuscleGroup{Hamstrings, Core},
		Aliases: []string{"Back Squat", "Front Squat", "Hack Squat", "Hack Squats", "Goblet Squat"}},
	{CanonicalName: "Leg Press", Primary: []MuscleGroup{Quads}, Secondary: []MuscleGroup{Glutes}},
	{CanonicalName: "Lunge", Primary: []MuscleGroup{Quads, Glutes}, Secondary: []MuscleGroup{Hamstrings},
		Aliases: []string{"Lunges", "Bulgarian Split Squat", "Split Squat", "Step Up"}},
	{CanonicalName: "Leg Extension", Primary: []MuscleGroup{Quads}, Aliases: []string{"Leg Extensions"}},
	{CanonicalName: "Leg Curl", Primary: []MuscleGroup{Hamstrings},
		Aliases: []string{"Lying Leg Curl", "Seated Leg Curl", "Leg Curls"}},
	{CanonicalName: "Hip Thrust", Primary: []MuscleGroup{Glutes}, Secondary: []MuscleGroup{Hamstrings},
		Aliases: []string{"Glute Bridge", "Hip Thrusts"}},
	{CanonicalName: "Calf Raise", Primary: []MuscleGroup{Calves},
		Aliases: []string{"Standing Calf Raise", "Seated Calf Raise", "Calf Raises"}},
	{CanonicalName: "Plank", Primary: []MuscleGroup{Core}, Aliases: []string{"Crunch", "Ab Wheel", "Hanging Leg Raise", "Cable Crunch"}},
}

// keywordFallbacks resolve unknown names by token, checked in order.
var keywordFallbacks = []struct {
	token   string
	mapping string
}{
	{"deadlift", "deadlift"},
	{"squat", "squat"},
	{"bench", "bench_press"},
	{"row", "barbell_row"},
	{"pulldown", "lat_pulldown"},
	{"curl", "bicep_curl"},
	{"triceps", "triceps_extension"},
	{"raise", "lateral_raise"},
	{"press", "overhead_press"},
	{"calf", "calf_raise"},
	{"lunge", "lunge"},
}

// Taxonomy resolves exercise ids or names to muscle groups.
type Taxonomy struct {
	index map[string]*ExerciseMapping
}

// DefaultTaxonomy returns the built-in exercise taxonomy.
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(defaultExercises)
}

// NewTaxonomy indexes the given mappings by canonical name and alias.
func NewTaxonomy(mappings []ExerciseMapping) *Taxonomy {
	t := &Taxonomy{index: make(map[string]*ExerciseMapping)}
	for i := range mappings {
		m := &mappings[i]
		t.index[NormalizeExerciseKey(m.CanonicalName)] = m
		for _, a := range m.Aliases {
			t.index[NormalizeExerciseKey(a)] = m
		}
	}
	return t
}

// Lookup resolves an exercise id (or display name) to its mapping.
func (t *Taxonomy) Lookup(exercise string) (*ExerciseMapping, bool) {
	key := NormalizeExerciseKey(exercise)
	if key == "" {
		return nil, false
	}
	if m, ok := t.index[key]; ok {
		return m, true
	}
	if m, ok := t.index[strings.TrimSuffix(key, "s")]; ok {
		return m, true
	}
	for _, fb := range keywordFallbacks {
		if strings.Contains(key, fb.token) {
			if m, ok := t.index[fb.mapping]; ok {
				return m, true
			}
		}
	}
	return nil, false
}

// NormalizeExerciseKey lowercases, expands common abbreviations and joins
// alphanumeric runs with underscores: "DB Bench-Press" → "dumbbell_bench_press".
func NormalizeExerciseKey(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		if full, ok := abbreviations[f]; ok {
			fields[i] = full
		}
	}
	return strings.Join(fields, "_")
}
