package mcp

import (
	"context"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

// Analytics is what the MCP tools read from. *analytics.Service satisfies
// it both in server mode and in remote stdio mode, where its remote source
// is an HTTPClient.
type Analytics interface {
	Snapshot(ctx context.Context, userID string, include analytics.Include) (*models.AnalyticsSnapshot, error)
	Sessions(ctx context.Context, userID string) ([]models.WorkoutSession, error)
}

// Compile-time check: *analytics.Service satisfies Analytics.
var _ Analytics = (*analytics.Service)(nil)
