package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meghna/ringsight/internal/config"
	"github.com/meghna/ringsight/internal/engine"
	"github.com/meghna/ringsight/internal/graph"
	"github.com/meghna/ringsight/internal/logging"
	"github.com/meghna/ringsight/internal/repository"
	"github.com/meghna/ringsight/internal/server"
	"github.com/meghna/ringsight/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	// The graph store is optional; without it scores are served from memory.
	var graphClient graph.Client
	if cfg.Graph.URI != "" {
		graphClient, err = buildGraphClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to create graph client", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}()
	} else {
		logger.Info("GRAPH_URI not set, scored graphs will not be persisted")
	}

	eng := engine.New(engine.Options{
		MaxCycles:   cfg.Engine.MaxCycles,
		LoopTimeout: cfg.Engine.LoopTimeout,
	})

	var persister service.Persister
	if graphClient != nil {
		repo := repository.New(graphClient)
		persister = service.NewBulkPersister(repo, cfg.Persist.Workers, cfg.Persist.ChunkSize)
	}

	scoringService := service.NewScoringService(eng, persister)

	if cfg.SnapshotPath != "" {
		if err := scoreAtBoot(ctx, scoringService, cfg.SnapshotPath); err != nil {
			logger.Error("failed to score boot snapshot", "error", err, "path", cfg.SnapshotPath)
			os.Exit(1)
		}
		logger.Info("scored boot snapshot", "path", cfg.SnapshotPath)
	}

	apiHandlers := server.NewAPIHandlers(logger, scoringService)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.GraphHealthService{Client: graphClient},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func scoreAtBoot(ctx context.Context, svc *service.ScoringService, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var input service.SnapshotInput
	if err := json.NewDecoder(file).Decode(&input); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	_, err = svc.ScoreSnapshot(ctx, input)
	return err
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
