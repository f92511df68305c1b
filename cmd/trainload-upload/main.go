package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/trainload/internal/config"
	"github.com/claude/trainload/internal/localstore"
	"github.com/claude/trainload/internal/logging"
	"github.com/claude/trainload/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "trainload server URL (e.g. https://trainload.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("TRAINLOAD_AUTH_API_KEY"), "ingest API key")
	localDir := flag.String("dir", "", "local store directory (default ~/.trainload)")
	userID := flag.String("user", "local", "user whose unsynced sessions are sent")
	dryRun := flag.Bool("dry-run", false, "list pending sessions but don't send them")
	batchSize := flag.Int("batch-size", 50, "sessions per request")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("trainload-upload", Version)
		return
	}

	log, closer := logging.New(config.LoggingConfig{Level: "info", Format: "text"})
	defer closer.Close()

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Usage: trainload-upload -server <URL> [-api-key KEY] [-dir DIR] [-user ID] [-dry-run] [-batch-size N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *apiKey == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -api-key or TRAINLOAD_AUTH_API_KEY is required (or use -dry-run)\n")
		os.Exit(1)
	}

	if *localDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*localDir = filepath.Join(homeDir, ".trainload")
	}

	store, err := localstore.Open(*localDir)
	if err != nil {
		log.Error("failed to open local store", "dir", *localDir, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("using local store", "dir", *localDir)

	if *dryRun {
		log.Info("DRY RUN mode: sessions will be listed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(upload.NewClient(*serverURL, *apiKey), store, *userID, *dryRun, *batchSize, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Sessions pending: %d\n", stats.SessionsPending)
	fmt.Printf("  Sessions sent:    %d\n", stats.SessionsSent)
	fmt.Printf("  Sets sent:        %d\n", stats.SetsSent)
	fmt.Printf("  Batches:          %d\n", stats.Batches)
	fmt.Println()
}
