package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/claude/trainload/internal/ingest"
)

// ErrInvalidExport wraps every parse failure returned by Ingest.
var ErrInvalidExport = errors.New("invalid alpha export")

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	store ingest.SessionWriter
	log   *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider writing to store.
func NewProvider(store ingest.SessionWriter, log *slog.Logger) *Provider {
	return &Provider{store: store, log: log}
}

// Ingest parses a CSV export, converts it and stores the sessions. Each
// session's sets are replaced so re-imports reflect the latest parser output.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID string) (*ingest.Result, error) {
	parsed, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExport, err)
	}

	working := 0
	for _, s := range parsed {
		working += s.WorkingSets()
	}
	sessions := ToSessions(userID, parsed)
	result := &ingest.Result{}
	result.Tally(sessions)
	if len(sessions) == 0 {
		result.Message = "no sessions found"
		return result, nil
	}

	n, err := p.store.UpsertSessions(ctx, userID, sessions)
	if err != nil {
		return nil, fmt.Errorf("storing sessions: %w", err)
	}
	result.SessionsInserted = n
	result.SetsInserted = result.SetsReceived

	p.log.Info("alpha import stored",
		"user_id", userID,
		"sessions", n,
		"sets", result.SetsInserted,
		"working_sets", working,
		"untracked_rir", result.UntrackedRIR,
	)
	return result, nil
}
