package analytics

import (
	"github.com/claude/trainload/internal/models"
)

const (
	acuteWindowDays   = 7
	chronicWindowDays = 28

	// NeutralRatio is reported when no chronic baseline exists.
	NeutralRatio = 1.0

	maxRatio    = 5
	maxLoad     = 1e6
	maxMonotony = 10
	maxStrain   = 1e7
)

// Aggregate computes acute:chronic workload, monotony and strain from load
// samples, anchored at the latest sample's day. ok is false for no samples.
func Aggregate(samples []models.TrainingLoadSample) (models.LoadSummary, bool) {
	if len(samples) == 0 {
		return models.LoadSummary{}, false
	}

	anchor := samples[0].Date
	earliest := samples[0].Date
	for _, s := range samples[1:] {
		if s.Date.After(anchor) {
			anchor = s.Date
		}
		if s.Date.Before(earliest) {
			earliest = s.Date
		}
	}
	anchorDay := utcDay(anchor)

	var daily [acuteWindowDays]float64
	var acute, chronic float64
	for _, s := range samples {
		load := s.Load
		if !isFinite(load) || load < 0 {
			load = 0
		}
		ago := anchorDay - utcDay(s.Date)
		if ago < 0 || ago >= chronicWindowDays {
			continue
		}
		chronic += load
		if ago < acuteWindowDays {
			acute += load
			daily[ago] += load
		}
	}

	acute = clamp(acute, 0, maxLoad)
	weeklyChronic := clamp(chronic/(chronicWindowDays/acuteWindowDays), 0, maxLoad)

	mean, sd := meanStddev(daily[:])
	var monotony float64
	if sd > 0 {
		monotony = clamp(mean/sd, 0, maxMonotony)
	}
	strain := clamp(acute*monotony, 0, maxStrain)

	summary := models.LoadSummary{
		AcuteLoad:   acute,
		ChronicLoad: weeklyChronic,
		Monotony:    monotony,
		Strain:      strain,
		AnchorDate:  anchor,
	}

	summary.HasBaseline = weeklyChronic > 0 && anchorDay-utcDay(earliest) >= acuteWindowDays
	if !summary.HasBaseline {
		summary.Ratio = NeutralRatio
		summary.Status = models.LoadStatusNoBaseline
		return summary, true
	}

	summary.Ratio = clamp(acute/weeklyChronic, 0, maxRatio)
	summary.Status = LoadStatus(summary.Ratio)
	return summary, true
}

// LoadStatus buckets an acute:chronic ratio.
func LoadStatus(ratio float64) string {
	switch {
	case ratio < 0.5:
		return models.LoadStatusLow
	case ratio < 0.8:
		return models.LoadStatusMaintenance
	case ratio <= 1.3:
		return models.LoadStatusOptimal
	case ratio <= 1.5:
		return models.LoadStatusBuilding
	case ratio <= 2.0:
		return models.LoadStatusOverreaching
	default:
		return models.LoadStatusDanger
	}
}
