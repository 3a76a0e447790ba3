package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/meghna/ringsight/internal/domain"
	"github.com/meghna/ringsight/internal/engine"
	"github.com/meghna/ringsight/internal/repository"
)

// ErrInvalidInput marks payloads rejected before the engine ran.
var ErrInvalidInput = errors.New("invalid snapshot input")

// Persister pushes a scored graph to durable storage.
type Persister interface {
	Persist(ctx context.Context, scored repository.ScoredGraph) error
}

// ScoringService runs the scoring engine over submitted snapshots, keeps
// the most recent result for serving, and optionally persists each scored
// graph. The engine itself is stateless; all serving state lives here.
type ScoringService struct {
	engine    *engine.Engine
	persister Persister
	nowFn     func() time.Time

	mu       sync.RWMutex
	latest   *engine.Result
	snapshot domain.Snapshot
	scoredAt time.Time
}

// NewScoringService constructs a ScoringService. The persister may be nil,
// in which case results are only held in memory.
func NewScoringService(eng *engine.Engine, persister Persister) *ScoringService {
	if eng == nil {
		eng = engine.New(engine.Options{})
	}
	return &ScoringService{
		engine:    eng,
		persister: persister,
		nowFn:     time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *ScoringService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// ScoreSnapshot normalizes the input, runs the full pipeline, caches the
// result, and persists the scored graph when a persister is configured.
func (s *ScoringService) ScoreSnapshot(ctx context.Context, input SnapshotInput) (*engine.Result, error) {
	snap, err := input.ToSnapshot()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result, err := s.engine.Score(ctx, snap)
	if err != nil {
		return nil, err
	}

	// Persist before publishing so a failed run never serves a table that
	// disagrees with the graph store.
	if s.persister != nil {
		scored := repository.ScoredGraph{
			Nodes:       result.Graph.Nodes(),
			Edges:       result.Graph.Edges(),
			Scores:      result.Ordered,
			Identifiers: snap.Identifiers,
			Touchpoints: snap.Touchpoints,
		}
		if err := s.persister.Persist(ctx, scored); err != nil {
			return nil, fmt.Errorf("persist scored graph: %w", err)
		}
	}

	s.mu.Lock()
	s.latest = result
	s.snapshot = snap
	s.scoredAt = s.nowFn().UTC()
	s.mu.Unlock()

	return result, nil
}

// PaginationMeta captures pagination metadata returned to API clients.
type PaginationMeta struct {
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// ListScoresParams defines filters for listing scores.
type ListScoresParams struct {
	Page     int
	PageSize int
	Tier     string
	// SortByScore orders results by descending final score instead of
	// account ID.
	SortByScore bool
}

// ScoresPage represents paginated scores with metadata.
type ScoresPage struct {
	Items      []domain.Score
	Pagination PaginationMeta
}

// ListScores pages through the latest score table. The second return is
// false when no snapshot has been scored yet.
func (s *ScoringService) ListScores(params ListScoresParams) (ScoresPage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return ScoresPage{}, false
	}

	filtered := make([]domain.Score, 0, len(s.latest.Ordered))
	tier := domain.Tier(params.Tier)
	for _, score := range s.latest.Ordered {
		if params.Tier != "" && score.Tier != tier {
			continue
		}
		filtered = append(filtered, score)
	}

	if params.SortByScore {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].FinalScore > filtered[j].FinalScore
		})
	}

	page, pageSize := normalizePagination(params.Page, params.PageSize)
	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	return ScoresPage{
		Items:      filtered[start:end],
		Pagination: buildPaginationMeta(page, pageSize, len(filtered)),
	}, true
}

// Score returns the latest score for one account.
func (s *ScoringService) Score(accountID string) (domain.Score, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return domain.Score{}, false
	}
	score, ok := s.latest.Scores[accountID]
	return score, ok
}

// GraphView is the constructed graph exposed for downstream consumers.
type GraphView struct {
	Nodes []domain.Node
	Edges []domain.Edge
}

// Graph returns the latest constructed graph.
func (s *ScoringService) Graph() (GraphView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return GraphView{}, false
	}
	return GraphView{
		Nodes: s.latest.Graph.Nodes(),
		Edges: s.latest.Graph.Edges(),
	}, true
}

// SummaryReport couples the tier summary with run metadata.
type SummaryReport struct {
	Summary       domain.Summary
	Stats         engine.Stats
	LoopCycles    [][]string
	LoopTruncated bool
	ScoredAt      time.Time
}

// Summary returns aggregate reporting for the latest run.
func (s *ScoringService) Summary() (SummaryReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return SummaryReport{}, false
	}
	return SummaryReport{
		Summary:       engine.Summarize(s.latest.Ordered),
		Stats:         s.latest.Stats,
		LoopCycles:    s.latest.Loops.Cycles,
		LoopTruncated: s.latest.Loops.Truncated,
		ScoredAt:      s.scoredAt,
	}, true
}

func normalizePagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

func buildPaginationMeta(page, pageSize, total int) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
		if total > 0 && totalPages == 0 {
			totalPages = 1
		}
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
