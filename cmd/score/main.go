package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meghna/ringsight/internal/config"
	"github.com/meghna/ringsight/internal/domain"
	"github.com/meghna/ringsight/internal/engine"
	"github.com/meghna/ringsight/internal/graph"
	"github.com/meghna/ringsight/internal/logging"
	"github.com/meghna/ringsight/internal/repository"
	"github.com/meghna/ringsight/internal/service"
)

func main() {
	var (
		snapshotPath = flag.String("snapshot", "data/snapshot.json", "Path to the snapshot JSON file")
		persist      = flag.Bool("persist", false, "Write the scored graph to the configured graph store")
		reset        = flag.Bool("reset", false, "Clear the graph store before persisting")
		asJSON       = flag.Bool("json", false, "Emit the score table as JSON instead of text")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "score")

	input, err := loadSnapshot(*snapshotPath)
	if err != nil {
		logger.Error("failed to load snapshot", "error", err, "path", *snapshotPath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng := engine.New(engine.Options{
		MaxCycles:   cfg.Engine.MaxCycles,
		LoopTimeout: cfg.Engine.LoopTimeout,
	})

	var persister service.Persister
	var graphClient graph.Client
	if *persist {
		if cfg.Graph.URI == "" {
			logger.Error("persist requested but GRAPH_URI is not set")
			os.Exit(1)
		}
		graphClient, err = graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
		})
		if err != nil {
			logger.Error("failed to create graph client", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}()

		repo := repository.New(graphClient)
		if *reset {
			if err := repo.ResetGraph(ctx); err != nil {
				logger.Error("failed to reset graph store", "error", err)
				os.Exit(1)
			}
		}
		persister = service.NewBulkPersister(repo, cfg.Persist.Workers, cfg.Persist.ChunkSize)
	}

	svc := service.NewScoringService(eng, persister)
	result, err := svc.ScoreSnapshot(ctx, input)
	if err != nil {
		var valErr *engine.ValidationError
		if errors.As(err, &valErr) {
			logger.Error("snapshot rejected", "error", valErr)
		} else {
			logger.Error("scoring run failed", "error", err)
		}
		os.Exit(1)
	}

	if *asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(result.Ordered); err != nil {
			logger.Error("failed to write score table", "error", err)
			os.Exit(1)
		}
	} else {
		printScoreTable(result)
	}

	logger.Info("scoring run complete",
		"accounts", result.Stats.Accounts,
		"nodes", result.Stats.Nodes,
		"edges", result.Stats.Edges,
		"cycles", result.Stats.CyclesFound,
		"loop_truncated", result.Loops.Truncated,
	)
}

func loadSnapshot(path string) (service.SnapshotInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return service.SnapshotInput{}, err
	}
	defer file.Close()

	var input service.SnapshotInput
	if err := json.NewDecoder(file).Decode(&input); err != nil {
		return service.SnapshotInput{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return input, nil
}

func printScoreTable(result *engine.Result) {
	for _, score := range result.Ordered {
		loop := ""
		if score.InLoop {
			loop = " [LOOP]"
		}
		fmt.Printf("%-12s own=%-4d contam=%-6.1f final=%-6.1f %s%s\n",
			score.AccountID, score.OwnScore, score.Contamination,
			score.FinalScore, score.Tier, loop)
		for _, flag := range score.Flags {
			fmt.Printf("    - %s (+%d)\n", flag.Name, flag.Weight)
		}
	}

	summary := engine.Summarize(result.Ordered)
	fmt.Println(strings.Repeat("-", 48))
	fmt.Printf("Accounts scored: %d\n", summary.Accounts)
	for _, tier := range domain.Tiers {
		fmt.Printf("  %-11s %d\n", tier, summary.TierCounts[tier])
	}
	fmt.Printf("Max score: %.1f\n", summary.MaxScore)
	fmt.Printf("Avg score: %.1f\n", summary.AvgScore)
	if result.Loops.Truncated {
		fmt.Println("Warning: loop detection hit its budget, results are partial")
	}
}
