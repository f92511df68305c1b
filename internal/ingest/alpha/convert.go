package alpha

import (
	"github.com/google/uuid"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

// SourceName tags sessions imported from Alpha Progression.
const SourceName = "alpha"

var sessionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("trainload:alpha-progression"))

// SessionID derives a stable id from user, start time and session name so
// re-importing the same export overwrites instead of duplicating.
func SessionID(userID string, s models.AlphaSession) string {
	key := userID + "|" + s.Date.UTC().Format("2006-01-02T15:04") + "|" + s.Name
	return uuid.NewSHA1(sessionNamespace, []byte(key)).String()
}

// ToSessions converts parsed sessions to canonical form. RIR becomes
// RPE = 10 − RIR, and bodyweight-plus sets carry only the added load.
func ToSessions(userID string, parsed []models.AlphaSession) []models.WorkoutSession {
	out := make([]models.WorkoutSession, 0, len(parsed))
	for _, s := range parsed {
		ws := models.WorkoutSession{
			ID:        SessionID(userID, s),
			UserID:    userID,
			Name:      s.Name,
			Date:      s.Date,
			StartTime: s.Date,
			Source:    SourceName,
		}
		if d, ok := parseDuration(s.Duration); ok && d > 0 {
			ws.EndTime = s.Date.Add(d)
		}
		for _, ex := range s.Exercises {
			id := analytics.NormalizeExerciseKey(ex.Name)
			for _, set := range ex.Sets {
				ws.Sets = append(ws.Sets, toSetRecord(id, ex.Name, set))
			}
		}
		out = append(out, ws)
	}
	return out
}

func toSetRecord(exerciseID, name string, set models.AlphaSet) models.SetRecord {
	rec := models.SetRecord{
		ExerciseID:   exerciseID,
		ExerciseName: name,
		Weight:       set.WeightKg,
		Reps:         float64(set.Reps),
		RPE:          set.RPE(),
		Completed:    true,
		SetType:      set.SetType(),
	}
	return rec
}
