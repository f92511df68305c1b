package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/config"
	"github.com/claude/trainload/internal/localstore"
	"github.com/claude/trainload/internal/logging"
	"github.com/claude/trainload/internal/mcp"
	"github.com/claude/trainload/internal/modelcache"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "trainload server URL for remote sessions")
	apiKey := flag.String("api-key", os.Getenv("TRAINLOAD_AUTH_API_KEY"), "API key sent to the server")
	localDir := flag.String("local-dir", "", "local store directory to read on-device sessions from")
	userID := flag.String("user", "local", "user the tools answer for")
	cacheBytes := flag.Int("cache-bytes", modelcache.DefaultMemoryBytes, "in-process model cache size, 0 disables")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("trainload-mcp", Version)
		return
	}

	log, closer := logging.NewTo(config.LoggingConfig{Level: "info", Format: "text"}, os.Stderr)
	defer closer.Close()

	if *serverURL == "" && *localDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: trainload-mcp [-server <URL>] [-local-dir DIR] [-user ID]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var local, remote analytics.SessionSource
	if *localDir != "" {
		ls, err := localstore.Open(*localDir)
		if err != nil {
			log.Error("failed to open local store", "dir", *localDir, "error", err)
			os.Exit(1)
		}
		defer ls.Close()
		local = ls
	}
	if *serverURL != "" {
		remote = mcp.NewHTTPClient(*serverURL, *apiKey)
	}

	var cache analytics.ModelCache = modelcache.Nop{}
	if *cacheBytes > 0 {
		cache = modelcache.NewMemory(*cacheBytes, 0)
	}

	svc := analytics.NewService(local, remote, cache, analytics.WithLogger(log))
	s := mcp.New(svc, Version, *userID, log)

	log.Info("trainload-mcp serving on stdio", "version", Version, "remote", *serverURL, "local", *localDir)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
