package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
// ok is false when none was set.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// defaultUser answers requests whose transport carries no identity (stdio).
func New(svc Analytics, version, defaultUser string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("trainload", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("trainload strength-training analytics. Query training load, fitness/fatigue, per-exercise fatigue rates, stimulus-to-fatigue rankings and muscle recovery. All data is scoped to the authenticated user."),
	)

	h := &handlers{svc: svc, defaultUser: defaultUser, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetTrainingLoad, Handler: h.getTrainingLoad},
		server.ServerTool{Tool: toolGetFitnessFatigue, Handler: h.getFitnessFatigue},
		server.ServerTool{Tool: toolGetFatigueModel, Handler: h.getFatigueModel},
		server.ServerTool{Tool: toolGetSFRLeaderboard, Handler: h.getSFRLeaderboard},
		server.ServerTool{Tool: toolGetRecoveryStatus, Handler: h.getRecoveryStatus},
		server.ServerTool{Tool: toolGetAnalyticsSnapshot, Handler: h.getAnalyticsSnapshot},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
	)

	s.AddResources(
		server.ServerResource{Resource: resReadiness, Handler: h.readiness},
	)

	return s
}

// NewHTTPHandler serves s over streamable HTTP. userFromRequest resolves
// the caller, typically from identity middleware.
func NewHTTPHandler(s *server.MCPServer, userFromRequest func(*http.Request) string) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if uid := userFromRequest(r); uid != "" {
				return WithUserID(ctx, uid)
			}
			return ctx
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	svc         Analytics
	defaultUser string
	log         *slog.Logger
}

func (h *handlers) userID(ctx context.Context) string {
	if uid, ok := UserIDFromContext(ctx); ok {
		return uid
	}
	return h.defaultUser
}

// --- Resource definitions ---

var resReadiness = mcp.NewResource(
	"trainload://readiness",
	"Readiness",
	mcp.WithResourceDescription("Current training readiness: load ratio, fitness/fatigue balance and the most limiting muscle group"),
	mcp.WithMIMEType("application/json"),
)
