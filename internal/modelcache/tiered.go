package modelcache

import (
	"context"
	"log/slog"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

// Tiered reads through a fast front cache to a shared back cache and fills
// the front on back hits.
type Tiered struct {
	front analytics.ModelCache
	back  analytics.ModelCache
	log   *slog.Logger
}

func NewTiered(front, back analytics.ModelCache, log *slog.Logger) *Tiered {
	return &Tiered{front: front, back: back, log: log}
}

func (t *Tiered) Get(ctx context.Context, userID, fingerprint string) (*models.HierarchicalFatigueModel, bool, error) {
	model, ok, err := t.front.Get(ctx, userID, fingerprint)
	if err == nil && ok {
		return model, true, nil
	}
	if err != nil {
		t.log.Debug("front model cache get failed", "user_id", userID, "error", err)
	}

	model, ok, err = t.back.Get(ctx, userID, fingerprint)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := t.front.Put(ctx, userID, fingerprint, model); err != nil {
		t.log.Debug("front model cache fill failed", "user_id", userID, "error", err)
	}
	return model, true, nil
}

// Put stores into both caches. Only a back failure is reported; the front
// is a per-process copy that a later back hit refills.
func (t *Tiered) Put(ctx context.Context, userID, fingerprint string, model *models.HierarchicalFatigueModel) error {
	if err := t.front.Put(ctx, userID, fingerprint, model); err != nil {
		t.log.Debug("front model cache put failed", "user_id", userID, "error", err)
	}
	return t.back.Put(ctx, userID, fingerprint, model)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, string) (*models.HierarchicalFatigueModel, bool, error) {
	return nil, false, nil
}

func (Nop) Put(context.Context, string, string, *models.HierarchicalFatigueModel) error {
	return nil
}
