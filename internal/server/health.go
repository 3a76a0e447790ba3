package server

import (
	"context"
	"errors"

	"github.com/meghna/ringsight/internal/graph"
)

// ErrGraphNotConfigured reports that the deployment runs without a graph
// store. Scoring still works; scored graphs are only held in memory.
var ErrGraphNotConfigured = errors.New("graph store not configured")

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphHealthService verifies graph connectivity as part of health checks.
type GraphHealthService struct {
	Client graph.Client
}

// Probe implements the HealthService interface. A nil client is reported
// as ErrGraphNotConfigured so callers can distinguish "persistence off"
// from "graph store unreachable".
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return ErrGraphNotConfigured
	}
	return s.Client.VerifyConnectivity(ctx)
}
