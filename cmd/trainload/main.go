package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis_rate/v9"
	"tailscale.com/tsnet"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/config"
	"github.com/claude/trainload/internal/ingest/alpha"
	"github.com/claude/trainload/internal/localstore"
	"github.com/claude/trainload/internal/logging"
	"github.com/claude/trainload/internal/mcp"
	"github.com/claude/trainload/internal/modelcache"
	"github.com/claude/trainload/internal/server"
	"github.com/claude/trainload/internal/storage"
	"github.com/claude/trainload/internal/telemetry/metrics"
	"github.com/claude/trainload/internal/telemetry/tracing"
	"github.com/claude/trainload/internal/warmer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Logging)
	defer logCloser.Close()
	log.Info("trainload starting", "version", Version)

	shutdownTracing, err := tracing.Setup(cfg.Tracing.Enabled, cfg.Tracing.ServiceName, os.Stdout)
	if err != nil {
		log.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	db, err := storage.New(ctx, dsn, cfg.Tracing.Enabled)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Metrics
	promRegistry := metrics.SetupPrometheus(
		pgxpoolprometheus.NewCollector(db.Pool(), map[string]string{"db_name": cfg.Database.Name}),
	)
	metricsManager := metrics.NewManager("trainload", "server", promRegistry)

	// Sessions recorded on this host, if any
	var local analytics.SessionSource
	if cfg.Local.Enabled {
		ls, err := localstore.Open(cfg.Local.Dir)
		if err != nil {
			log.Error("failed to open local store", "error", err)
			os.Exit(1)
		}
		defer ls.Close()
		local = ls
		log.Info("local store opened", "dir", cfg.Local.Dir)
	}

	cache, rdb := modelcache.FromConfig(cfg.Cache, log)
	if rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed, cache lookups will miss", "error", err)
		}
	}

	svc := analytics.NewService(local, db, cache,
		analytics.WithLogger(log),
		analytics.WithMetrics(metricsManager),
		analytics.WithParams(cfg.Analytics.Params()),
	)

	// Create server
	srv := server.New(svc, db, alpha.NewProvider(db, log), cfg.Auth.APIKey, log)
	srv.SetDevUser(cfg.Server.DevUser)
	srv.SetMetrics(metricsManager, promRegistry)
	if cfg.Cache.RateLimitPerMinute > 0 && rdb != nil {
		srv.SetRateLimiter(redis_rate.NewLimiter(rdb), cfg.Cache.RateLimitPerMinute)
	}
	mcpServer := mcp.New(svc, Version, cfg.Server.DevUser, log)
	srv.SetMCP(mcp.NewHTTPHandler(mcpServer, server.UserID))

	// Background model warm-up
	if cfg.Warmer.Enabled {
		w := warmer.New(svc, cfg.Warmer.Users, log, metricsManager)
		if err := w.Start(ctx, cfg.Warmer.Schedule); err != nil {
			log.Error("warmer start failed", "error", err)
			os.Exit(1)
		}
		defer w.Stop()
	}

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port))
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()
	metricsManager.GaugeLifeSignal.Set(1)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	metricsManager.GaugeLifeSignal.Set(0)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", "error", err)
	}
	log.Info("server stopped")
}
