package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

// defaultTimeRange returns start/end defaulting to the last 28 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -28)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// --- Tool definitions ---

var toolGetTrainingLoad = mcp.NewTool("get_training_load",
	mcp.WithDescription("Acute:chronic workload ratio (7-day vs 28-day weekly average), status bucket, monotony and strain."),
)

var toolGetFitnessFatigue = mcp.NewTool("get_fitness_fatigue",
	mcp.WithDescription("Two-compartment fitness/fatigue readout over recent sessions: fitness, fatigue, net performance and a readiness bucket."),
)

var toolGetFatigueModel = mcp.NewTool("get_fatigue_model",
	mcp.WithDescription("Hierarchical fatigue model: user fatigue resistance, recovery rate, confidence and per-exercise fatigue rates shrunk toward the user's prior."),
)

var toolGetSFRLeaderboard = mcp.NewTool("get_sfr_leaderboard",
	mcp.WithDescription("Exercises ranked by stimulus-to-fatigue ratio, best first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of exercises. Defaults to 10.")),
)

var toolGetRecoveryStatus = mcp.NewTool("get_recovery_status",
	mcp.WithDescription("Per-muscle-group recovery: days since last trained, readiness score and status."),
	mcp.WithString("muscle_group", mcp.Description("Only return this muscle group (e.g. chest, quads)")),
)

var toolGetAnalyticsSnapshot = mcp.NewTool("get_analytics_snapshot",
	mcp.WithDescription("Full analytics snapshot. Views lacking data are listed under insufficient."),
	mcp.WithString("include", mcp.Description("Comma-separated views: acwr, fitness_fatigue, hierarchical, personal_stats, exercise_rates, recovery, sfr. Defaults to all.")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Reconciled workout sessions with their sets (weight, reps, RPE, set type)."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 28 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Only keep sets whose exercise matches (partial, e.g. 'bench')")),
)

// --- Tool handlers ---

// snapshot runs one view and returns an error result when it came back empty.
func (h *handlers) snapshot(ctx context.Context, tool string, include analytics.Include) (*models.AnalyticsSnapshot, *mcp.CallToolResult) {
	snap, err := h.svc.Snapshot(ctx, h.userID(ctx), include)
	if err != nil {
		h.log.Error("mcp "+tool, "error", err)
		return nil, mcp.NewToolResultError("analytics failed: " + err.Error())
	}
	return snap, nil
}

func insufficient(view string) *mcp.CallToolResult {
	return mcp.NewToolResultError("not enough training history for " + view)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingLoad(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, errRes := h.snapshot(ctx, "get_training_load", analytics.IncludeACWR)
	if errRes != nil {
		return errRes, nil
	}
	if snap.ACWR == nil {
		return insufficient("acwr"), nil
	}
	return jsonResult(snap.ACWR)
}

func (h *handlers) getFitnessFatigue(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, errRes := h.snapshot(ctx, "get_fitness_fatigue", analytics.IncludeFitnessFatigue)
	if errRes != nil {
		return errRes, nil
	}
	if snap.FitnessFatigue == nil {
		return insufficient("fitness_fatigue"), nil
	}
	return jsonResult(snap.FitnessFatigue)
}

func (h *handlers) getFatigueModel(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, errRes := h.snapshot(ctx, "get_fatigue_model", analytics.IncludeHierarchical|analytics.IncludeExerciseRates)
	if errRes != nil {
		return errRes, nil
	}
	if snap.HierarchicalModel == nil {
		return insufficient("hierarchical"), nil
	}
	return jsonResult(map[string]any{
		"model":          snap.HierarchicalModel,
		"exercise_rates": snap.ExerciseRates,
	})
}

func (h *handlers) getSFRLeaderboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	snap, errRes := h.snapshot(ctx, "get_sfr_leaderboard", analytics.IncludeSFR)
	if errRes != nil {
		return errRes, nil
	}
	if len(snap.SFRInsights) == 0 {
		return insufficient("sfr"), nil
	}
	insights := snap.SFRInsights
	if len(insights) > limit {
		insights = insights[:limit]
	}
	return jsonResult(insights)
}

func (h *handlers) getRecoveryStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, errRes := h.snapshot(ctx, "get_recovery_status", analytics.IncludeRecovery)
	if errRes != nil {
		return errRes, nil
	}
	if snap.RecoveryProfiles == nil {
		return insufficient("recovery"), nil
	}

	group := strings.ToLower(strings.TrimSpace(req.GetString("muscle_group", "")))
	if group == "" {
		return jsonResult(snap.RecoveryProfiles)
	}
	for _, p := range snap.RecoveryProfiles.Profiles {
		if p.MuscleGroup == group {
			return jsonResult(p)
		}
	}
	return mcp.NewToolResultError("unknown muscle group: " + group), nil
}

func (h *handlers) getAnalyticsSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	include, err := analytics.ParseInclude(req.GetString("include", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, errRes := h.snapshot(ctx, "get_analytics_snapshot", include)
	if errRes != nil {
		return errRes, nil
	}
	return jsonResult(snap)
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.svc.Sessions(ctx, h.userID(ctx))
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return jsonResult(analytics.FilterSessions(sessions, start, end, req.GetString("exercise", "")))
}
