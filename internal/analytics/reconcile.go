package analytics

import (
	"sort"
	"strings"

	"github.com/claude/trainload/internal/models"
)

// sourcePrefixes are stripped from session ids before comparing sources.
var sourcePrefixes = []string{"session_", "local_", "remote_"}

// NormalizeID strips source-specific prefixes so the same session seen by
// the local cache and the remote store compares equal.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	for {
		trimmed := false
		for _, p := range sourcePrefixes {
			if strings.HasPrefix(id, p) && len(id) > len(p) {
				id = id[len(p):]
				trimmed = true
			}
		}
		if !trimmed {
			return id
		}
	}
}

// Reconcile merges local and remote sessions into one deduplicated,
// validity-filtered, time-ordered history. Remote wins on id collision.
// Malformed sets are dropped. Inputs are not modified.
func Reconcile(local, remote []models.WorkoutSession) []models.WorkoutSession {
	byID := make(map[string]models.WorkoutSession, len(local)+len(remote))
	var order []string

	add := func(s models.WorkoutSession) {
		key := NormalizeID(s.ID)
		if _, seen := byID[key]; !seen {
			order = append(order, key)
		}
		byID[key] = s
	}
	for _, s := range local {
		add(s)
	}
	for _, s := range remote {
		add(s)
	}

	out := make([]models.WorkoutSession, 0, len(order))
	for _, key := range order {
		s := cleanSession(byID[key])
		if _, ok := s.Timestamp(); !ok {
			continue
		}
		if !s.HasLoad() {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := out[i].Timestamp()
		tj, _ := out[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return NormalizeID(out[i].ID) < NormalizeID(out[j].ID)
	})
	return out
}

// cleanSession copies the session with malformed sets removed.
func cleanSession(s models.WorkoutSession) models.WorkoutSession {
	sets := make([]models.SetRecord, 0, len(s.Sets))
	for _, set := range s.Sets {
		if set.Malformed() {
			continue
		}
		sets = append(sets, set)
	}
	s.Sets = sets
	if s.TotalVolumeLoad != nil {
		v := *s.TotalVolumeLoad
		s.TotalVolumeLoad = &v
	}
	return s
}

// LoadSamples converts a reconciled history into one load sample per session.
func LoadSamples(sessions []models.WorkoutSession) []models.TrainingLoadSample {
	samples := make([]models.TrainingLoadSample, 0, len(sessions))
	for _, s := range sessions {
		ts, ok := s.Timestamp()
		if !ok {
			continue
		}
		samples = append(samples, models.TrainingLoadSample{Date: ts, Load: s.Load()})
	}
	return samples
}
