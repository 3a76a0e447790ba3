package service

import (
	"context"
	"errors"
	"sync"

	"github.com/meghna/ringsight/internal/repository"
)

// TaskError accumulates multiple errors produced during bulk persistence.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes the accumulated errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ScoredGraphStore is the storage contract the bulk persister requires.
type ScoredGraphStore interface {
	SaveScoredGraph(ctx context.Context, scored repository.ScoredGraph) error
}

// BulkPersister writes large scored graphs in chunks using a worker pool.
// Node statements go first in one batch so every later relationship merge
// finds its endpoints; edge and usage chunks then fan out concurrently.
type BulkPersister struct {
	store     ScoredGraphStore
	workers   int
	chunkSize int
}

// NewBulkPersister creates a BulkPersister with the provided concurrency.
func NewBulkPersister(store ScoredGraphStore, workers, chunkSize int) *BulkPersister {
	if workers <= 0 {
		workers = 4
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &BulkPersister{
		store:     store,
		workers:   workers,
		chunkSize: chunkSize,
	}
}

// Persist implements the Persister interface.
func (bp *BulkPersister) Persist(ctx context.Context, scored repository.ScoredGraph) error {
	if bp.store == nil {
		return errors.New("bulk persister has no store")
	}

	// Endpoints before relationships.
	nodesOnly := repository.ScoredGraph{Nodes: scored.Nodes, Scores: scored.Scores}
	if err := bp.store.SaveScoredGraph(ctx, nodesOnly); err != nil {
		return err
	}

	chunks := bp.relationshipChunks(scored)
	if len(chunks) == 0 {
		return nil
	}

	jobs := make(chan repository.ScoredGraph)
	var wg sync.WaitGroup
	var mu sync.Mutex
	taskErr := &TaskError{}

	for i := 0; i < bp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range jobs {
				if ctx.Err() != nil {
					return
				}
				if err := bp.store.SaveScoredGraph(ctx, chunk); err != nil {
					mu.Lock()
					taskErr.append(err)
					mu.Unlock()
				}
			}
		}()
	}

	// Guarded send: workers stop receiving once the context is cancelled,
	// so an unguarded send here would block forever.
Loop:
	for _, chunk := range chunks {
		select {
		case jobs <- chunk:
		case <-ctx.Done():
			break Loop
		}
	}
	close(jobs)
	wg.Wait()

	taskErr.append(ctx.Err())
	return taskErr.asError()
}

func (bp *BulkPersister) relationshipChunks(scored repository.ScoredGraph) []repository.ScoredGraph {
	var chunks []repository.ScoredGraph

	for start := 0; start < len(scored.Edges); start += bp.chunkSize {
		end := start + bp.chunkSize
		if end > len(scored.Edges) {
			end = len(scored.Edges)
		}
		chunks = append(chunks, repository.ScoredGraph{Edges: scored.Edges[start:end]})
	}

	for start := 0; start < len(scored.Identifiers); start += bp.chunkSize {
		end := start + bp.chunkSize
		if end > len(scored.Identifiers) {
			end = len(scored.Identifiers)
		}
		chunks = append(chunks, repository.ScoredGraph{Identifiers: scored.Identifiers[start:end]})
	}

	for start := 0; start < len(scored.Touchpoints); start += bp.chunkSize {
		end := start + bp.chunkSize
		if end > len(scored.Touchpoints) {
			end = len(scored.Touchpoints)
		}
		chunks = append(chunks, repository.ScoredGraph{Touchpoints: scored.Touchpoints[start:end]})
	}

	return chunks
}
