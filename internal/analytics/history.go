package analytics

import (
	"strings"
	"time"

	"github.com/claude/trainload/internal/models"
)

// ExerciseSets is one exercise's valid sets within a session, in order.
type ExerciseSets struct {
	ExerciseID string
	Name       string
	Sets       []models.SetRecord
}

// TrainingDay is a session reshaped for the per-exercise estimators.
type TrainingDay struct {
	SessionID string
	Date      time.Time
	Exercises []ExerciseSets
}

// History groups each reconciled session's valid sets by exercise,
// keeping first-appearance order. Sessions without valid sets are skipped.
func History(sessions []models.WorkoutSession) []TrainingDay {
	days := make([]TrainingDay, 0, len(sessions))
	for _, s := range sessions {
		ts, ok := s.Timestamp()
		if !ok {
			continue
		}
		idx := make(map[string]int)
		var exercises []ExerciseSets
		for _, set := range s.Sets {
			if !set.Valid() || set.ExerciseID == "" {
				continue
			}
			i, seen := idx[set.ExerciseID]
			if !seen {
				i = len(exercises)
				idx[set.ExerciseID] = i
				exercises = append(exercises, ExerciseSets{ExerciseID: set.ExerciseID, Name: set.ExerciseName})
			}
			exercises[i].Sets = append(exercises[i].Sets, set)
		}
		if len(exercises) == 0 {
			continue
		}
		days = append(days, TrainingDay{SessionID: s.ID, Date: ts, Exercises: exercises})
	}
	return days
}

// exerciseNames maps exercise ids to the first non-empty display name seen.
func exerciseNames(days []TrainingDay) map[string]string {
	names := make(map[string]string)
	for _, d := range days {
		for _, ex := range d.Exercises {
			if _, ok := names[ex.ExerciseID]; !ok && ex.Name != "" {
				names[ex.ExerciseID] = ex.Name
			}
		}
	}
	return names
}

// FilterSessions keeps sessions whose timestamp falls in [start, end). A
// non-empty exercise filter drops non-matching sets and then empty sessions.
func FilterSessions(sessions []models.WorkoutSession, start, end time.Time, exercise string) []models.WorkoutSession {
	exercise = strings.ToLower(strings.TrimSpace(exercise))
	out := []models.WorkoutSession{}
	for _, s := range sessions {
		ts, ok := s.Timestamp()
		if !ok || ts.Before(start) || !ts.Before(end) {
			continue
		}
		if exercise == "" {
			out = append(out, s)
			continue
		}
		var sets []models.SetRecord
		for _, set := range s.Sets {
			if strings.Contains(strings.ToLower(set.ExerciseID), exercise) ||
				strings.Contains(strings.ToLower(set.ExerciseName), exercise) {
				sets = append(sets, set)
			}
		}
		if len(sets) > 0 {
			s.Sets = sets
			out = append(out, s)
		}
	}
	return out
}
