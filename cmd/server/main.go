// Package main provides the entry point for the RustyGPT server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vannadii/rustygpt-go/internal/assistant"
	"github.com/vannadii/rustygpt-go/internal/authsession"
	"github.com/vannadii/rustygpt-go/internal/config"
	"github.com/vannadii/rustygpt-go/internal/convo"
	"github.com/vannadii/rustygpt-go/internal/dbproc"
	"github.com/vannadii/rustygpt-go/internal/eventbus"
	"github.com/vannadii/rustygpt-go/internal/logging"
	"github.com/vannadii/rustygpt-go/internal/provider"
	"github.com/vannadii/rustygpt-go/internal/server"
	"github.com/vannadii/rustygpt-go/internal/streamsup"
)

var (
	port      = flag.Int("port", 0, "Server port (overrides config)")
	directory = flag.String("directory", "", "Working directory")
	version   = flag.Bool("version", false, "Print version and exit")
)

const (
	versionString = "0.1.0"
	buildTime     = "dev"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("rustygpt-server %s (%s)\n", versionString, buildTime)
		os.Exit(0)
	}

	logging.Init(logging.DefaultConfig())

	workDir := *directory
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to resolve working directory")
		}
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		logging.Fatal().Err(err).Msg("failed to create data directories")
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	db, err := dbproc.Open(cfg.Database.DSN, cfg.Database.MaxConnections, cfg.Database.StatementTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	providerReg, err := provider.InitializeProviders(ctx, cfg)
	if err != nil {
		logging.Warn().Err(err).Msg("one or more providers failed to initialize")
	}

	authority := authsession.New(db, cfg)
	convoSvc := convo.New(db)

	var durable eventbus.DurableStore
	if cfg.SSE.Persistence.Enabled {
		durable = eventbus.NewDurableStore(db)
	}

	hub := eventbus.NewHub(eventbus.Config{
		RingCapacity: cfg.SSE.ChannelCapacity,
		Persistence: eventbus.PersistenceConfig{
			Enabled:          cfg.SSE.Persistence.Enabled,
			MaxEventsPerUser: cfg.SSE.Persistence.MaxEventsPerUser,
			PruneBatchSize:   cfg.SSE.Persistence.PruneBatchSize,
			RetentionHours:   cfg.SSE.Persistence.RetentionHours,
		},
	}, durable)

	supervisor := streamsup.New()
	pipeline := assistant.New(convoSvc, hub, providerReg, supervisor)

	srv := server.New(cfg, authority, convoSvc, hub, supervisor, providerReg, pipeline)

	go func() {
		logging.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
	}

	logging.Info().Msg("server stopped")
}
