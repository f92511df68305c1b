// Package ingest turns external workout exports into canonical sessions.
package ingest

import (
	"context"

	"github.com/claude/trainload/internal/models"
)

// SessionWriter stores canonical sessions for a user. Both the Postgres
// store and the local store implement it.
type SessionWriter interface {
	UpsertSessions(ctx context.Context, userID string, sessions []models.WorkoutSession) (int, error)
}

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	SessionsInserted int `json:"sessions_inserted"`
	SetsReceived     int `json:"sets_received"`
	SetsInserted     int `json:"sets_inserted"`
	// WarmupSets are stored but never count toward load.
	WarmupSets int `json:"warmup_sets"`
	// UntrackedRIR counts working sets stored without an RPE.
	UntrackedRIR int `json:"untracked_rir"`

	Message string `json:"message,omitempty"`
}

// Tally fills the received counters from converted sessions.
func (r *Result) Tally(sessions []models.WorkoutSession) {
	r.SessionsReceived = len(sessions)
	for _, s := range sessions {
		r.SetsReceived += len(s.Sets)
		for _, set := range s.Sets {
			switch {
			case set.SetType == models.SetTypeWarmup:
				r.WarmupSets++
			case set.RPE == nil:
				r.UntrackedRIR++
			}
		}
	}
}
