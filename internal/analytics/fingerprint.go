package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/claude/trainload/internal/models"
)

// Fingerprint identifies a reconciled history. Any added, removed or edited
// session changes it.
func Fingerprint(sessions []models.WorkoutSession) string {
	h := sha256.New()
	fmt.Fprintf(h, "n=%d\n", len(sessions))
	for _, s := range sessions {
		ts, _ := s.Timestamp()
		fmt.Fprintf(h, "s|%s|%d|%.3f\n", NormalizeID(s.ID), ts.UnixNano(), s.Load())
		for _, set := range s.Sets {
			if !set.Valid() {
				continue
			}
			rpe := -1.0
			if set.RPE != nil {
				rpe = *set.RPE
			}
			fmt.Fprintf(h, "%s|%.3f|%.3f|%.2f|%s\n", set.ExerciseID, set.Weight, set.Reps, rpe, set.SetType)
		}
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// ModelKey is the cache key for a model fitted from the history with the
// given fingerprint under cfg. Changing any tunable changes the key.
func ModelKey(fingerprint string, cfg HierarchicalConfig) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%+v", fingerprint, cfg)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
