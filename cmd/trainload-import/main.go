package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/trainload/internal/config"
	"github.com/claude/trainload/internal/importer"
	"github.com/claude/trainload/internal/ingest"
	"github.com/claude/trainload/internal/localstore"
	"github.com/claude/trainload/internal/logging"
	"github.com/claude/trainload/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (used with -remote)")
	path := flag.String("path", "", "Alpha Progression CSV export, or a directory of them (required)")
	userID := flag.String("user", "local", "user id to import for")
	localDir := flag.String("dir", defaultLocalDir(), "local store directory")
	remote := flag.Bool("remote", false, "write into the server database instead of the local store")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing")
	flag.Parse()

	log, closer := logging.New(config.LoggingConfig{Level: "info", Format: "text"})
	defer closer.Close()

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: trainload-import -path export.csv [-user id] [-remote -config config.yaml] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()
	if *dryRun {
		log.Info("DRY RUN mode: nothing will be written")
	}

	var store ingest.SessionWriter
	if *remote {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(ctx, dsn, false)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		log.Info("writing to server database", "host", cfg.Database.Host)
	} else {
		ls, err := localstore.Open(*localDir)
		if err != nil {
			log.Error("failed to open local store", "error", err)
			os.Exit(1)
		}
		defer ls.Close()
		store = ls
		log.Info("writing to local store", "dir", *localDir)
	}

	imp := importer.New(store, *userID, log, *dryRun)
	stats, err := imp.Import(ctx, *path)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("import complete")
}

func defaultLocalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trainload"
	}
	return filepath.Join(home, ".trainload")
}

func printStats(stats *importer.Stats) {
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("  Files processed:  %d\n", stats.FilesProcessed)
	fmt.Printf("  Files skipped:    %d (no sessions)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions parsed:  %d\n", stats.SessionsParsed)
	fmt.Printf("  Sessions stored:  %d\n", stats.SessionsInserted)
	fmt.Printf("  Sets stored:      %d\n", stats.SetsInserted)
	fmt.Printf("  Warmup sets:      %d\n", stats.WarmupSets)
	fmt.Printf("  Untracked RIR:    %d\n", stats.UntrackedRIR)
	fmt.Println()
}

