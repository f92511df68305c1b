package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/claude/trainload/internal/models"
)

const (
	maxReadiness    = 10
	minRecoveryRate = 0.25
)

// EstimateRecovery derives per-muscle-group readiness at asOf from the last
// time each group was trained. Secondary involvement recovers over half the
// group's window. A nil model means an average recovery rate of 1.0.
func EstimateRecovery(days []TrainingDay, model *models.HierarchicalFatigueModel, tax *Taxonomy, asOf time.Time) *models.RecoverySummary {
	if tax == nil {
		tax = DefaultTaxonomy()
	}
	lastPrimary := make(map[MuscleGroup]time.Time)
	lastSecondary := make(map[MuscleGroup]time.Time)
	unmapped := make(map[string]bool)

	mark := func(m map[MuscleGroup]time.Time, g MuscleGroup, at time.Time) {
		if at.After(m[g]) {
			m[g] = at
		}
	}
	for _, d := range days {
		for _, ex := range d.Exercises {
			if len(ex.Sets) == 0 {
				continue
			}
			mapping, ok := tax.Lookup(ex.ExerciseID)
			if !ok && ex.Name != "" {
				mapping, ok = tax.Lookup(ex.Name)
			}
			if !ok {
				unmapped[ex.ExerciseID] = true
				continue
			}
			for _, g := range mapping.Primary {
				mark(lastPrimary, g, d.Date)
			}
			for _, g := range mapping.Secondary {
				mark(lastSecondary, g, d.Date)
			}
		}
	}

	rate := 1.0
	if model != nil {
		rate = math.Max(model.UserRecoveryRate, minRecoveryRate)
	}

	summary := &models.RecoverySummary{OverallReadiness: maxReadiness}
	for _, g := range AllMuscleGroups {
		window := RecoveryWindow(g).Hours() / 24 / rate
		readiness := float64(maxReadiness)
		since := float64(models.NeverTrainedDays)

		if at, ok := lastPrimary[g]; ok {
			d := math.Max(0, daysBetween(at, asOf))
			readiness = math.Min(readiness, recovered(d, window))
			since = d
		}
		if at, ok := lastSecondary[g]; ok {
			d := math.Max(0, daysBetween(at, asOf))
			readiness = math.Min(readiness, recovered(d, window/2))
			since = math.Min(since, d)
		}

		p := models.RecoveryProfile{
			MuscleGroup:          string(g),
			DaysSinceLastTrained: math.Round(since*10) / 10,
			ReadinessScore:       math.Round(readiness*10) / 10,
		}
		p.Status = RecoveryStatus(p.ReadinessScore)
		summary.Profiles = append(summary.Profiles, p)

		if p.ReadinessScore < summary.OverallReadiness {
			summary.OverallReadiness = p.ReadinessScore
			summary.LimitingGroup = p.MuscleGroup
		}
	}
	summary.OverallStatus = RecoveryStatus(summary.OverallReadiness)

	for id := range unmapped {
		summary.UnmappedExercises = append(summary.UnmappedExercises, id)
	}
	sort.Strings(summary.UnmappedExercises)
	return summary
}

func recovered(days, window float64) float64 {
	if window <= 0 {
		return maxReadiness
	}
	return clamp(maxReadiness*days/window, 0, maxReadiness)
}

// RecoveryStatus buckets a 0–10 readiness score.
func RecoveryStatus(score float64) string {
	switch {
	case score >= 8:
		return models.RecoveryFresh
	case score >= 6:
		return models.RecoveryRecovering
	default:
		return models.RecoveryFatigued
	}
}
