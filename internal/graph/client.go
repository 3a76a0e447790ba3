package graph

import (
	"context"
	"errors"
)

// Client is the contract the repository needs to persist and query the
// scored fraud graph. Implementations exist for Bolt-speaking databases
// (Neo4j, Neptune's openCypher endpoint) and for in-memory testing.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	// ExecuteBatch runs all statements inside a single write transaction,
	// so a scored snapshot lands atomically or not at all.
	ExecuteBatch(ctx context.Context, statements []Statement) error
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Statement pairs a cypher string with its parameters for batched writes.
type Statement struct {
	Cypher string
	Params map[string]any
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
