package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/trainload/internal/analytics"
)

// readinessView is the compact readout behind trainload://readiness.
type readinessView struct {
	UserID           string    `json:"user_id"`
	AsOf             time.Time `json:"as_of"`
	LoadRatio        *float64  `json:"load_ratio,omitempty"`
	LoadStatus       string    `json:"load_status,omitempty"`
	Readiness        string    `json:"readiness,omitempty"`
	NetPerformance   *float64  `json:"net_performance,omitempty"`
	MuscleReadiness  *float64  `json:"muscle_readiness,omitempty"`
	LimitingGroup    string    `json:"limiting_group,omitempty"`
	InsufficientData []string  `json:"insufficient_data,omitempty"`
}

func (h *handlers) readiness(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := h.userID(ctx)
	snap, err := h.svc.Snapshot(ctx, uid, analytics.IncludeACWR|analytics.IncludeFitnessFatigue|analytics.IncludeRecovery)
	if err != nil {
		return nil, err
	}

	view := readinessView{UserID: uid, AsOf: snap.GeneratedAt, InsufficientData: snap.Insufficient}
	if snap.ACWR != nil {
		view.LoadRatio = &snap.ACWR.Ratio
		view.LoadStatus = snap.ACWR.Status
	}
	if ff := snap.FitnessFatigue; ff != nil {
		view.Readiness = ff.Readiness
		view.NetPerformance = &ff.NetPerformance
	}
	if rec := snap.RecoveryProfiles; rec != nil {
		view.MuscleReadiness = &rec.OverallReadiness
		view.LimitingGroup = rec.LimitingGroup
	}

	data, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
