package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/config"
	"github.com/claude/trainload/internal/export"
	"github.com/claude/trainload/internal/localstore"
	"github.com/claude/trainload/internal/logging"
	"github.com/claude/trainload/internal/modelcache"
	"github.com/claude/trainload/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userID := flag.String("user", "", "user to export (required)")
	outDir := flag.String("out", ".", "output directory")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintf(os.Stderr, "Usage: trainload-export -user ID [-config config.yaml] [-out DIR]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, closer := logging.New(cfg.Logging)
	defer closer.Close()

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN(), false)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var local analytics.SessionSource
	if cfg.Local.Enabled {
		ls, err := localstore.Open(cfg.Local.Dir)
		if err != nil {
			log.Error("failed to open local store", "error", err)
			os.Exit(1)
		}
		defer ls.Close()
		local = ls
	}

	cache, rdb := modelcache.FromConfig(cfg.Cache, log)
	if rdb != nil {
		defer rdb.Close()
	}

	svc := analytics.NewService(local, db, cache,
		analytics.WithLogger(log),
		analytics.WithParams(cfg.Analytics.Params()),
	)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	samples, err := svc.LoadSeries(ctx, *userID)
	if err != nil {
		log.Error("loading sessions failed", "error", err)
		os.Exit(1)
	}
	data, err := export.MarshalLoadSeries(samples)
	if err != nil {
		log.Error("parquet export failed", "error", err)
		os.Exit(1)
	}
	loadPath := filepath.Join(*outDir, "load.parquet")
	if err := os.WriteFile(loadPath, data, 0o644); err != nil {
		log.Error("writing load series failed", "error", err)
		os.Exit(1)
	}
	log.Info("wrote load series", "path", loadPath, "samples", len(samples))

	snap, err := svc.Snapshot(ctx, *userID, analytics.IncludeAll)
	if err != nil {
		log.Error("snapshot failed", "error", err)
		os.Exit(1)
	}
	snapJSON, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Error("encoding snapshot failed", "error", err)
		os.Exit(1)
	}
	snapPath := filepath.Join(*outDir, "snapshot.json")
	if err := os.WriteFile(snapPath, snapJSON, 0o644); err != nil {
		log.Error("writing snapshot failed", "error", err)
		os.Exit(1)
	}
	log.Info("wrote snapshot", "path", snapPath)
}
