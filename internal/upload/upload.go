// Package upload pushes sessions recorded on this device to a trainload
// server and marks them synced in the local store.
package upload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/trainload/internal/ingest"
	"github.com/claude/trainload/internal/localstore"
	"github.com/claude/trainload/internal/models"
)

// LocalStore is the part of the local store the uploader needs.
type LocalStore interface {
	Unsynced(ctx context.Context, userID string) ([]models.WorkoutSession, error)
	MarkSynced(ctx context.Context, ids []string) error
}

var _ LocalStore = (*localstore.Store)(nil)

// Sender delivers one batch. *Client implements it.
type Sender interface {
	SendSessions(ctx context.Context, batch models.SessionBatch) (*ingest.Result, error)
}

// Stats tracks upload progress.
type Stats struct {
	SessionsPending int
	SessionsSent    int
	SetsSent        int
	Batches         int
}

// Uploader sends a user's unsynced sessions in batches.
type Uploader struct {
	client    Sender
	store     LocalStore
	userID    string
	dryRun    bool
	batchSize int
	log       *slog.Logger
	stats     Stats
}

// New creates a new Uploader.
func New(client Sender, store LocalStore, userID string, dryRun bool, batchSize int, log *slog.Logger) *Uploader {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Uploader{
		client:    client,
		store:     store,
		userID:    userID,
		dryRun:    dryRun,
		batchSize: batchSize,
		log:       log,
	}
}

// Run uploads every unsynced session. Batches sent before a failure stay
// marked synced; the failing batch and the rest are retried on the next run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	sessions, err := u.store.Unsynced(ctx, u.userID)
	if err != nil {
		return &u.stats, fmt.Errorf("reading unsynced sessions: %w", err)
	}
	u.stats.SessionsPending = len(sessions)
	if len(sessions) == 0 {
		u.log.Info("nothing to upload", "user_id", u.userID)
		return &u.stats, nil
	}

	for i := 0; i < len(sessions); i += u.batchSize {
		end := min(i+u.batchSize, len(sessions))
		if err := u.sendBatch(ctx, sessions[i:end]); err != nil {
			return &u.stats, err
		}
	}
	return &u.stats, nil
}

func (u *Uploader) sendBatch(ctx context.Context, batch []models.WorkoutSession) error {
	sets := 0
	ids := make([]string, len(batch))
	for i, ws := range batch {
		ids[i] = ws.ID
		sets += len(ws.Sets)
	}

	if u.dryRun {
		u.log.Info("dry-run: would send sessions", "count", len(batch), "sets", sets)
		u.stats.Batches++
		return nil
	}

	res, err := u.client.SendSessions(ctx, models.SessionBatch{Sessions: batch})
	if err != nil {
		return fmt.Errorf("sending batch of %d sessions: %w", len(batch), err)
	}
	if err := u.store.MarkSynced(ctx, ids); err != nil {
		return fmt.Errorf("marking batch synced: %w", err)
	}

	u.stats.Batches++
	u.stats.SessionsSent += len(batch)
	u.stats.SetsSent += sets
	u.log.Info("uploaded batch",
		"sessions", len(batch),
		"inserted", res.SessionsInserted,
		"sets", res.SetsInserted,
	)
	return nil
}
