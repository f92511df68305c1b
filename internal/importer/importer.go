// Package importer loads Alpha Progression CSV exports from disk, one file
// or a whole directory of them, into a session store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/claude/trainload/internal/ingest"
	"github.com/claude/trainload/internal/ingest/alpha"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsParsed   int
	SessionsInserted int
	SetsInserted     int
	WarmupSets       int
	UntrackedRIR     int
}

// Importer reads CSV exports and stores their sessions for one user.
type Importer struct {
	provider *alpha.Provider
	userID   string
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer writing through store.
func New(store ingest.SessionWriter, userID string, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{
		provider: alpha.NewProvider(store, log),
		userID:   userID,
		log:      log,
		dryRun:   dryRun,
	}
}

// Import processes path, either a single export or a directory whose *.csv
// files are imported in name order. A broken file is logged and counted;
// only store failures abort the run.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	files, err := exportFiles(path)
	if err != nil {
		return &imp.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, f); err != nil {
			return &imp.stats, fmt.Errorf("importing %s: %w", filepath.Base(f), err)
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		imp.log.Warn("open failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	defer f.Close()

	if imp.dryRun {
		parsed, err := alpha.Parse(f)
		if err != nil {
			imp.log.Warn("parse failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		var res ingest.Result
		res.Tally(alpha.ToSessions(imp.userID, parsed))
		imp.add(path, &res)
		imp.log.Info("dry-run: would import", "file", filepath.Base(path), "sessions", res.SessionsReceived, "sets", res.SetsReceived)
		return nil
	}

	res, err := imp.provider.Ingest(ctx, f, imp.userID)
	if err != nil {
		if errors.Is(err, alpha.ErrInvalidExport) {
			imp.log.Warn("parse failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		return err
	}
	imp.add(path, res)
	return nil
}

func (imp *Importer) add(path string, res *ingest.Result) {
	if res.SessionsReceived == 0 {
		imp.log.Info("no sessions in file", "file", filepath.Base(path))
		imp.stats.FilesSkipped++
		return
	}
	imp.stats.FilesProcessed++
	imp.stats.SessionsParsed += res.SessionsReceived
	imp.stats.SessionsInserted += res.SessionsInserted
	imp.stats.SetsInserted += res.SetsInserted
	imp.stats.WarmupSets += res.WarmupSets
	imp.stats.UntrackedRIR += res.UntrackedRIR
}

// exportFiles resolves path to the export files to read.
func exportFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	files, err := filepath.Glob(filepath.Join(path, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
