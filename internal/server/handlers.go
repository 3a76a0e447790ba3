package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/meghna/ringsight/internal/domain"
	"github.com/meghna/ringsight/internal/engine"
	"github.com/meghna/ringsight/internal/metrics"
	"github.com/meghna/ringsight/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.ScoringService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.ScoringService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var input service.SnapshotInput
	if err := decodeJSON(r, &input); err != nil {
		metrics.ScoreRunsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ScoreSnapshot(r.Context(), input)
	if err != nil {
		var valErr *engine.ValidationError
		if errors.As(err, &valErr) || errors.Is(err, service.ErrInvalidInput) {
			metrics.ScoreRunsTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		metrics.ScoreRunsTotal.WithLabelValues("error").Inc()
		h.logger.Error("scoring run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "scoring run failed")
		return
	}

	recordRunMetrics(result)

	respondJSON(w, http.StatusOK, scoreRunResponse{
		Status:        "scored",
		Accounts:      result.Stats.Accounts,
		Nodes:         result.Stats.Nodes,
		Edges:         result.Stats.Edges,
		CyclesFound:   result.Stats.CyclesFound,
		LoopTruncated: result.Loops.Truncated,
	})
}

func recordRunMetrics(result *engine.Result) {
	metrics.ScoreRunsTotal.WithLabelValues("ok").Inc()
	metrics.ScoredAccounts.Set(float64(result.Stats.Accounts))
	metrics.GraphNodes.Set(float64(result.Stats.Nodes))
	metrics.GraphEdges.Set(float64(result.Stats.Edges))
	metrics.LoopAccounts.Set(float64(result.Stats.LoopAccounts))
	metrics.StageDuration.WithLabelValues("build").Observe(result.Stats.BuildDuration.Seconds())
	metrics.StageDuration.WithLabelValues("loops").Observe(result.Stats.LoopDuration.Seconds())
	metrics.StageDuration.WithLabelValues("score").Observe(result.Stats.ScoreDuration.Seconds())
	if result.Loops.Truncated {
		metrics.LoopBudgetExceededTotal.Inc()
	}
}

func (h *APIHandlers) handleScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	params := service.ListScoresParams{
		Page:        parseInt(query.Get("page"), 0),
		PageSize:    parseInt(query.Get("pageSize"), 0),
		SortByScore: query.Get("sort") == "score",
	}

	if tier := strings.ToUpper(strings.TrimSpace(query.Get("tier"))); tier != "" {
		if !validTier(tier) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tier %q", tier))
			return
		}
		params.Tier = tier
	}

	page, ok := h.service.ListScores(params)
	if !ok {
		writeError(w, http.StatusNotFound, "no snapshot has been scored yet")
		return
	}

	items := make([]scoreResponse, 0, len(page.Items))
	for _, score := range page.Items {
		items = append(items, toScoreResponse(score))
	}

	respondJSON(w, http.StatusOK, listScoresResponse{
		Items: items,
		Pagination: paginationResponse{
			Page:       page.Pagination.Page,
			PageSize:   page.Pagination.PageSize,
			TotalItems: page.Pagination.TotalItems,
			TotalPages: page.Pagination.TotalPages,
		},
	})
}

func (h *APIHandlers) handleScoreByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	accountID := strings.TrimPrefix(r.URL.Path, "/scores/")
	accountID = strings.Trim(accountID, "/")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account ID is required")
		return
	}

	score, ok := h.service.Score(accountID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no score for account %q", accountID))
		return
	}

	respondJSON(w, http.StatusOK, toScoreResponse(score))
}

func (h *APIHandlers) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	view, ok := h.service.Graph()
	if !ok {
		writeError(w, http.StatusNotFound, "no snapshot has been scored yet")
		return
	}

	response := graphResponse{
		Nodes: make([]nodeResponse, 0, len(view.Nodes)),
		Edges: make([]edgeResponse, 0, len(view.Edges)),
	}
	for _, node := range view.Nodes {
		n := nodeResponse{
			ID:   node.ID,
			Type: string(node.Type),
		}
		switch node.Type {
		case domain.NodeTypeAccount:
			n.AccountType = string(node.AccountType)
			n.Holder = node.Holder
		case domain.NodeTypeIdentifier:
			n.IdentifierType = string(node.IdentifierType)
		}
		response.Nodes = append(response.Nodes, n)
	}
	for _, edge := range view.Edges {
		e := edgeResponse{
			Source: edge.Source,
			Target: edge.Target,
			Type:   string(edge.Type),
		}
		if edge.Type == domain.EdgeTypeMoneyFlow {
			e.TransactionID = edge.TransactionID
			e.Amount = edge.Amount
			e.Timestamp = edge.Timestamp
		}
		response.Edges = append(response.Edges, e)
	}

	respondJSON(w, http.StatusOK, response)
}

func (h *APIHandlers) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	report, ok := h.service.Summary()
	if !ok {
		writeError(w, http.StatusNotFound, "no snapshot has been scored yet")
		return
	}

	tiers := make(map[string]int, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		tiers[string(tier)] = report.Summary.TierCounts[tier]
	}

	respondJSON(w, http.StatusOK, summaryResponse{
		Accounts:      report.Summary.Accounts,
		TierCounts:    tiers,
		MaxScore:      report.Summary.MaxScore,
		AvgScore:      report.Summary.AvgScore,
		CyclesFound:   report.Stats.CyclesFound,
		LoopAccounts:  report.Stats.LoopAccounts,
		LoopTruncated: report.LoopTruncated,
		ScoredAt:      formatTime(report.ScoredAt),
	})
}

type scoreRunResponse struct {
	Status        string `json:"status"`
	Accounts      int    `json:"accounts"`
	Nodes         int    `json:"nodes"`
	Edges         int    `json:"edges"`
	CyclesFound   int    `json:"cyclesFound"`
	LoopTruncated bool   `json:"loopTruncated"`
}

type flagResponse struct {
	Name        string `json:"name"`
	Weight      int    `json:"weight"`
	Description string `json:"description,omitempty"`
}

type scoreResponse struct {
	AccountID     string         `json:"accountId"`
	OwnScore      int            `json:"ownScore"`
	Contamination float64        `json:"contamination"`
	FinalScore    float64        `json:"finalScore"`
	Tier          string         `json:"tier"`
	InLoop        bool           `json:"inLoop"`
	Flags         []flagResponse `json:"flags"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

type listScoresResponse struct {
	Items      []scoreResponse    `json:"items"`
	Pagination paginationResponse `json:"pagination"`
}

type nodeResponse struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	AccountType    string `json:"accountType,omitempty"`
	Holder         string `json:"holder,omitempty"`
	IdentifierType string `json:"identifierType,omitempty"`
}

type edgeResponse struct {
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	Type          string  `json:"type"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Timestamp     int64   `json:"timestamp,omitempty"`
}

type graphResponse struct {
	Nodes []nodeResponse `json:"nodes"`
	Edges []edgeResponse `json:"edges"`
}

type summaryResponse struct {
	Accounts      int            `json:"accounts"`
	TierCounts    map[string]int `json:"tierCounts"`
	MaxScore      float64        `json:"maxScore"`
	AvgScore      float64        `json:"avgScore"`
	CyclesFound   int            `json:"cyclesFound"`
	LoopAccounts  int            `json:"loopAccounts"`
	LoopTruncated bool           `json:"loopTruncated"`
	ScoredAt      string         `json:"scoredAt"`
}

type statusResponse struct {
	Error string `json:"error"`
}

func toScoreResponse(score domain.Score) scoreResponse {
	flags := make([]flagResponse, 0, len(score.Flags))
	for _, flag := range score.Flags {
		flags = append(flags, flagResponse{
			Name:        flag.Name,
			Weight:      flag.Weight,
			Description: flag.Description,
		})
	}
	return scoreResponse{
		AccountID:     score.AccountID,
		OwnScore:      score.OwnScore,
		Contamination: score.Contamination,
		FinalScore:    score.FinalScore,
		Tier:          string(score.Tier),
		InLoop:        score.InLoop,
		Flags:         flags,
	}
}

func validTier(value string) bool {
	for _, tier := range domain.Tiers {
		if string(tier) == value {
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, statusResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
