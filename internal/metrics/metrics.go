// Package metrics provides Prometheus instrumentation for the scoring pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ringsight",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ringsight",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ScoreRunsTotal counts scoring runs by outcome.
	ScoreRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ringsight",
			Name:      "score_runs_total",
			Help:      "Total scoring runs by outcome (ok, invalid, error).",
		},
		[]string{"outcome"},
	)

	// StageDuration observes per-stage pipeline latency.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ringsight",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds (build, loops, score).",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// ScoredAccounts tracks the account count of the latest run.
	ScoredAccounts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ringsight", Name: "scored_accounts",
		Help: "Number of accounts scored in the latest run.",
	})
	// GraphNodes tracks the node count of the latest constructed graph.
	GraphNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ringsight", Name: "graph_nodes",
		Help: "Number of nodes in the latest constructed graph.",
	})
	// GraphEdges tracks the edge count of the latest constructed graph.
	GraphEdges = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ringsight", Name: "graph_edges",
		Help: "Number of edges in the latest constructed graph.",
	})
	// LoopAccounts tracks how many accounts sit on at least one cycle.
	LoopAccounts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ringsight", Name: "loop_accounts",
		Help: "Number of accounts participating in a transaction loop.",
	})

	// LoopBudgetExceededTotal counts runs where loop enumeration was cut short.
	LoopBudgetExceededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ringsight",
		Name:      "loop_budget_exceeded_total",
		Help:      "Total scoring runs where cycle enumeration hit its budget.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ScoreRunsTotal,
		StageDuration,
		ScoredAccounts,
		GraphNodes,
		GraphEdges,
		LoopAccounts,
		LoopBudgetExceededTotal,
	)
}

// Handler returns the Prometheus scrape handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
