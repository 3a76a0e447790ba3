// Package engine computes fraud-risk scores for a static snapshot of
// accounts, identifier assignments, touchpoint visits, and transactions.
//
// Scoring runs as five pure stages: graph construction, money-flow loop
// detection, per-account flag scoring, one-hop contamination, and tier
// classification. Each stage is a function of the previous stage's output;
// nothing is mutated across stages and identical snapshots always produce
// identical score tables.
package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/meghna/ringsight/internal/domain"
)

// Default loop-enumeration budget. Simple-cycle enumeration is worst-case
// exponential, so production callers must keep a bound in place.
const (
	DefaultMaxCycles   = 10000
	DefaultLoopTimeout = 5 * time.Second
)

// Options tunes the engine. The scoring rules themselves are fixed; only
// the loop-enumeration budget is configurable.
type Options struct {
	MaxCycles   int
	LoopTimeout time.Duration
}

// Engine runs the full scoring pipeline. Safe for concurrent use; it holds
// no state between invocations.
type Engine struct {
	opts Options
}

// New constructs an Engine, applying budget defaults for unset options.
func New(opts Options) *Engine {
	if opts.MaxCycles <= 0 {
		opts.MaxCycles = DefaultMaxCycles
	}
	if opts.LoopTimeout <= 0 {
		opts.LoopTimeout = DefaultLoopTimeout
	}
	return &Engine{opts: opts}
}

// Stats captures structured per-stage facts about one pipeline run, in
// place of any console narration.
type Stats struct {
	Accounts      int
	Nodes         int
	Edges         int
	CyclesFound   int
	LoopAccounts  int
	LoopTruncated bool
	BuildDuration time.Duration
	LoopDuration  time.Duration
	ScoreDuration time.Duration
}

// Result is the complete output of one pipeline run. Scores is keyed by
// account ID; Ordered lists the same scores sorted by account ID for
// deterministic iteration.
type Result struct {
	Graph   *Graph
	Scores  map[string]domain.Score
	Ordered []domain.Score
	Loops   LoopDetection
	Stats   Stats
}

// Score runs the five-stage pipeline over the snapshot. It fails fast on
// validation errors and otherwise always returns a complete score table;
// a snapshot with zero accounts yields an empty table. The context bounds
// loop enumeration together with the configured budget.
func (e *Engine) Score(ctx context.Context, snap domain.Snapshot) (*Result, error) {
	if err := ValidateSnapshot(snap); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buildStart := time.Now()
	g := BuildGraph(snap)
	buildDuration := time.Since(buildStart)

	deadline := time.Now().Add(e.opts.LoopTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	loopStart := time.Now()
	loops := DetectLoops(g, e.opts.MaxCycles, deadline)
	loopDuration := time.Since(loopStart)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scoreStart := time.Now()
	flagged := ScoreFlags(g, loops)
	contamination := Contaminate(g, flagged)

	scores := make(map[string]domain.Score, len(flagged))
	for accountID, flags := range flagged {
		final := FinalScore(flags.OwnScore, contamination[accountID])
		scores[accountID] = domain.Score{
			AccountID:     accountID,
			OwnScore:      flags.OwnScore,
			Contamination: contamination[accountID],
			FinalScore:    final,
			Tier:          ClassifyTier(final),
			Flags:         flags.Flags,
			InLoop:        flags.InLoop,
		}
	}
	scoreDuration := time.Since(scoreStart)

	ordered := make([]domain.Score, 0, len(scores))
	for _, score := range scores {
		ordered = append(ordered, score)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].AccountID < ordered[j].AccountID
	})

	return &Result{
		Graph:   g,
		Scores:  scores,
		Ordered: ordered,
		Loops:   loops,
		Stats: Stats{
			Accounts:      len(snap.Accounts),
			Nodes:         g.NumNodes(),
			Edges:         g.NumEdges(),
			CyclesFound:   len(loops.Cycles),
			LoopAccounts:  len(loops.Members),
			LoopTruncated: loops.Truncated,
			BuildDuration: buildDuration,
			LoopDuration:  loopDuration,
			ScoreDuration: scoreDuration,
		},
	}, nil
}

// Summarize aggregates a score table into tier counts and basic score
// statistics for reporting.
func Summarize(scores []domain.Score) domain.Summary {
	summary := domain.Summary{
		TierCounts: make(map[domain.Tier]int, len(domain.Tiers)),
		Accounts:   len(scores),
	}
	for _, tier := range domain.Tiers {
		summary.TierCounts[tier] = 0
	}
	if len(scores) == 0 {
		return summary
	}

	total := 0.0
	for _, score := range scores {
		summary.TierCounts[score.Tier]++
		total += score.FinalScore
		if score.FinalScore > summary.MaxScore {
			summary.MaxScore = score.FinalScore
		}
	}
	summary.AvgScore = math.Round(total/float64(len(scores))*10) / 10
	return summary
}
