package analytics

import (
	"context"
	"errors"

	"github.com/claude/trainload/internal/models"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=analytics_test

// SessionSource supplies a user's sessions in canonical form. The local
// cache and the remote store each implement it through their own adapter.
type SessionSource interface {
	Sessions(ctx context.Context, userID string) ([]models.WorkoutSession, error)
}

// ErrCacheEntryTooLarge is returned by a ModelCache that cannot hold a model
// of this size. The service treats it as a skipped store, not a failure.
var ErrCacheEntryTooLarge = errors.New("model too large for cache")

// ModelCache memoizes fitted fatigue models per user and model key (see
// ModelKey). Implementations are best effort.
type ModelCache interface {
	Get(ctx context.Context, userID, fingerprint string) (*models.HierarchicalFatigueModel, bool, error)
	Put(ctx context.Context, userID, fingerprint string, model *models.HierarchicalFatigueModel) error
}
