package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/meghna/ringsight/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		rings            = flag.Int("rings", cfg.NumRings, "number of fraud rings to plant")
		cleanAccounts    = flag.Int("clean", cfg.NumCleanAccounts, "number of unconnected background accounts")
		minRingSize      = flag.Int("min-ring-size", cfg.MinRingSize, "minimum accounts per ring")
		maxRingSize      = flag.Int("max-ring-size", cfg.MaxRingSize, "maximum accounts per ring")
		loopChance       = flag.Float64("loop-chance", cfg.LoopChance, "probability a ring routes money in a closed cycle")
		deviceChance     = flag.Float64("device-chance", cfg.DeviceShareChance, "probability ring members share a device")
		touchpointChance = flag.Float64("touchpoint-chance", cfg.TouchpointChance, "probability ring members visit a shared ATM or portal")
		seed             = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir        = flag.String("output-dir", "data", "directory to write snapshot.json")
		writeStdout      = flag.Bool("stdout", false, "write the snapshot to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumRings:          *rings,
		NumCleanAccounts:  *cleanAccounts,
		MinRingSize:       *minRingSize,
		MaxRingSize:       *maxRingSize,
		LoopChance:        clampProbability(*loopChance),
		DeviceShareChance: clampProbability(*deviceChance),
		TouchpointChance:  clampProbability(*touchpointChance),
		Seed:              *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	snapshot, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write snapshot to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteSnapshot(snapshot, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d accounts and %d transactions into %s\n",
		len(snapshot.Accounts), len(snapshot.Transactions), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
