package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/meghna/ringsight/internal/domain"
	"github.com/meghna/ringsight/internal/repository"
)

type stubStore struct {
	mu    sync.Mutex
	calls []repository.ScoredGraph
	fail  func(repository.ScoredGraph) error
}

func (s *stubStore) SaveScoredGraph(_ context.Context, scored repository.ScoredGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scored)
	if s.fail != nil {
		return s.fail(scored)
	}
	return nil
}

func bulkScoredGraph(edgeCount int) repository.ScoredGraph {
	nodes := []domain.Node{
		{ID: "ACC001", Type: domain.NodeTypeAccount, AccountType: domain.AccountTypeSavings},
		{ID: "ACC002", Type: domain.NodeTypeAccount, AccountType: domain.AccountTypeUPI},
	}
	edges := make([]domain.Edge, edgeCount)
	for i := range edges {
		edges[i] = domain.Edge{
			Source:        "ACC001",
			Target:        "ACC002",
			Type:          domain.EdgeTypeMoneyFlow,
			Amount:        100,
			TransactionID: fmt.Sprintf("TXN%03d", i),
		}
	}
	return repository.ScoredGraph{
		Nodes: nodes,
		Edges: edges,
		Scores: []domain.Score{
			{AccountID: "ACC001", Tier: domain.TierClean},
			{AccountID: "ACC002", Tier: domain.TierClean},
		},
	}
}

func TestBulkPersister_Persist(t *testing.T) {
	store := &stubStore{}
	bp := NewBulkPersister(store, 3, 4)

	if err := bp.Persist(context.Background(), bulkScoredGraph(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One node batch plus ceil(10/4) edge chunks.
	if len(store.calls) != 4 {
		t.Fatalf("expected 4 store calls, got %d", len(store.calls))
	}

	first := store.calls[0]
	if len(first.Nodes) != 2 || len(first.Edges) != 0 {
		t.Error("first call must carry nodes only")
	}

	var edges int
	for _, call := range store.calls[1:] {
		if len(call.Nodes) != 0 {
			t.Error("relationship chunks must not repeat nodes")
		}
		edges += len(call.Edges)
	}
	if edges != 10 {
		t.Errorf("expected 10 edges across chunks, got %d", edges)
	}
}

func TestBulkPersister_Persist_NodeBatchError(t *testing.T) {
	wantErr := errors.New("write refused")
	store := &stubStore{fail: func(repository.ScoredGraph) error { return wantErr }}
	bp := NewBulkPersister(store, 2, 4)

	err := bp.Persist(context.Background(), bulkScoredGraph(8))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected node batch error, got %v", err)
	}
	if len(store.calls) != 1 {
		t.Errorf("no relationship chunks should be written after a node failure, got %d calls", len(store.calls))
	}
}

func TestBulkPersister_Persist_ChunkErrorsAccumulate(t *testing.T) {
	store := &stubStore{fail: func(scored repository.ScoredGraph) error {
		if len(scored.Edges) > 0 {
			return errors.New("chunk failed")
		}
		return nil
	}}
	bp := NewBulkPersister(store, 2, 2)

	err := bp.Persist(context.Background(), bulkScoredGraph(6))
	if err == nil {
		t.Fatal("expected accumulated chunk errors")
	}
	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected *TaskError, got %T", err)
	}
	if len(taskErr.Errors) != 3 {
		t.Errorf("expected 3 chunk failures, got %d", len(taskErr.Errors))
	}
}

func TestBulkPersister_Persist_ContextCancelled(t *testing.T) {
	store := &stubStore{}
	bp := NewBulkPersister(store, 2, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- bp.Persist(ctx, bulkScoredGraph(10))
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Persist did not return after cancellation")
	}
}

func TestBulkPersister_Persist_Empty(t *testing.T) {
	store := &stubStore{}
	bp := NewBulkPersister(store, 2, 100)

	scored := repository.ScoredGraph{
		Nodes:  []domain.Node{{ID: "ACC001", Type: domain.NodeTypeAccount}},
		Scores: []domain.Score{{AccountID: "ACC001", Tier: domain.TierClean}},
	}
	if err := bp.Persist(context.Background(), scored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.calls) != 1 {
		t.Errorf("expected only the node batch, got %d calls", len(store.calls))
	}
}
