package analytics

import (
	"time"

	"github.com/claude/trainload/internal/models"
)

// RPE bands for the intensity distribution.
var intensityBands = []string{"<=6", "7", "8", "9", "10", "untracked"}

func intensityBand(rpe *float64) string {
	if rpe == nil {
		return "untracked"
	}
	switch r := *rpe; {
	case r < 6.5:
		return "<=6"
	case r < 7.5:
		return "7"
	case r < 8.5:
		return "8"
	case r < 9.5:
		return "9"
	default:
		return "10"
	}
}

// PersonalStatistics summarises a reconciled history relative to asOf.
func PersonalStatistics(sessions []models.WorkoutSession, asOf time.Time) *models.PersonalStats {
	stats := &models.PersonalStats{}
	exercises := make(map[string]bool)
	bandCounts := make(map[string]int)
	var failures int

	for _, s := range sessions {
		ts, ok := s.Timestamp()
		if !ok {
			continue
		}
		stats.TotalSessions++
		stats.TotalVolume += s.Load()
		if stats.FirstSession.IsZero() || ts.Before(stats.FirstSession) {
			stats.FirstSession = ts
		}
		if ts.After(stats.LastSession) {
			stats.LastSession = ts
		}
		if ago := asOf.Sub(ts); ago >= 0 {
			if ago < 7*24*time.Hour {
				stats.SessionsLast7Days++
			}
			if ago < 28*24*time.Hour {
				stats.SessionsLast28Days++
			}
		}

		for _, set := range s.Sets {
			if !set.Valid() {
				continue
			}
			stats.TotalSets++
			if set.ExerciseID != "" {
				exercises[set.ExerciseID] = true
			}
			bandCounts[intensityBand(set.RPE)]++
			if set.SetType == models.SetTypeFailure || (set.RPE != nil && *set.RPE >= 9.5) {
				failures++
			}
		}
	}
	if stats.TotalSessions == 0 {
		return stats
	}

	stats.TotalVolume = clamp(stats.TotalVolume, 0, 1e12)
	stats.AvgSessionVolume = stats.TotalVolume / float64(stats.TotalSessions)
	stats.DistinctExercises = len(exercises)

	weeks := daysBetween(stats.FirstSession, stats.LastSession) / 7
	if weeks < 1 {
		weeks = 1
	}
	stats.AvgSessionsPerWeek = float64(stats.TotalSessions) / weeks

	for _, band := range intensityBands {
		b := models.IntensityBand{Band: band, Sets: bandCounts[band]}
		if stats.TotalSets > 0 {
			b.Share = float64(b.Sets) / float64(stats.TotalSets)
		}
		stats.IntensityDistribution = append(stats.IntensityDistribution, b)
	}
	if stats.TotalSets > 0 {
		stats.FailureRate = float64(failures) / float64(stats.TotalSets)
	}
	return stats
}
