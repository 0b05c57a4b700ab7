// Package main provides the entry point for the authorization registry server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Moortu/authorization-registry-sub000/internal/audit"
	"github.com/Moortu/authorization-registry-sub000/internal/clock"
	"github.com/Moortu/authorization-registry-sub000/internal/config"
	"github.com/Moortu/authorization-registry-sub000/internal/dbmigrate"
	"github.com/Moortu/authorization-registry-sub000/internal/delegationapi"
	"github.com/Moortu/authorization-registry-sub000/internal/guard"
	"github.com/Moortu/authorization-registry-sub000/internal/httpapi"
	"github.com/Moortu/authorization-registry-sub000/internal/obslog"
	"github.com/Moortu/authorization-registry-sub000/internal/policyset"
	"github.com/Moortu/authorization-registry-sub000/internal/seed"
	"github.com/Moortu/authorization-registry-sub000/internal/session"
	"github.com/Moortu/authorization-registry-sub000/internal/store"
	"github.com/Moortu/authorization-registry-sub000/internal/trust"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath      = flag.String("config", "config.json", "Path to the JSON or YAML configuration file")
		logLevel        = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		logFormat       = flag.String("log-format", "json", "Log format (json, console)")
		logFile         = flag.String("log-file", "", "Optional rotated log file path")
		showVersion     = flag.Bool("version", false, "Show version information")
		gracefulTimeout = flag.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("authorization-registry %s\n", Version)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	logger, logLevelAtomic, err := obslog.New(obslog.Options{Level: *logLevel, Format: *logFormat, File: *logFile, MaxSizeMB: 100, MaxAgeDays: 28, MaxBackups: 5})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if levelWatcher, err := config.WatchLevel(*configPath, logLevelAtomic, logger); err != nil {
		logger.Warn("log level hot-reload disabled", zap.Error(err))
	} else {
		defer levelWatcher.Close()
		stopLevelWatch := make(chan struct{})
		defer close(stopLevelWatch)
		go levelWatcher.Watch(stopLevelWatch)
	}

	logger.Info("starting authorization registry",
		zap.String("version", Version),
		zap.String("listen_address", cfg.ListenAddress),
	)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database connection", zap.Error(err))
	}
	defer db.Close()

	runner, err := dbmigrate.NewRunner(db)
	if err != nil {
		logger.Fatal("failed to initialize migration runner", zap.Error(err))
	}
	if err := runner.Up(); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	policyStore := store.NewPostgresStore(db)
	auditStore := audit.NewPostgresStore(db)
	tokens := session.New(cfg.JWTSecret, cfg.JWTExpirySecs)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to parse redis_url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		logger.Info("satellite token cache backed by redis")
	}

	trustClient := trust.NewISHAREClient(trust.Config{
		SatelliteURL:  cfg.SatelliteURL,
		SatelliteEORI: cfg.SatelliteEORI,
		ClientEORI:    cfg.ClientEORI,
		RedisClient:   redisClient,
	})

	delegationController := delegationapi.New(policyStore, auditStore, trustClient, clock.System{}, cfg.DEExpirySecs)

	accessGuard := guard.New(func(req types.DelegationRequest) types.DelegationEvidence {
		ev, err := delegationController.CreateDelegationEvidence(context.Background(), req)
		if err != nil {
			logger.Warn("access guard evidence build failed", zap.Error(err))
			return types.DelegationEvidence{}
		}
		return ev
	})

	policySetController := policyset.New(policyStore, auditStore, accessGuard, trustClient)

	if err := seed.Apply(context.Background(), policyStore, cfg.SeedFolder, logger); err != nil {
		logger.Fatal("failed to apply seed data", zap.Error(err))
	}

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	if cfg.SeedFolder != "" {
		seedWatcher, err := seed.NewWatcher(cfg.SeedFolder, policyStore, logger)
		if err != nil {
			logger.Warn("seed folder hot-reload disabled", zap.Error(err))
		} else {
			defer seedWatcher.Close()
			go seedWatcher.Watch(watchCtx)
		}
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:              logger,
		Tokens:              tokens,
		Delegation:          delegationController,
		PolicySets:          policySetController,
		AuditStore:          auditStore,
		Guard:               accessGuard,
		TrustClient:         trustClient,
		ClientEORI:          cfg.ClientEORI,
		IDPURL:              cfg.IDPURL,
		AllowedAdminCompany: cfg.SatelliteEORI,
		DeployRoute:         cfg.DeployRoute,
	})

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("listening", zap.String("address", cfg.ListenAddress))
		errChan <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), *gracefulTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error("error during graceful shutdown", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}
