package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meghna/ringsight/internal/service"
)

type stubHealth struct {
	err error
}

func (s stubHealth) Probe(context.Context) error { return s.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

const sampleSnapshotJSON = `{
	"accounts": [
		{"account_id": "ACC001", "type": "SAVINGS", "holder": "Asha"},
		{"account_id": "ACC002", "type": "UPI", "holder": "Dev"},
		{"account_id": "ACC003", "type": "WALLET", "holder": "Mira"}
	],
	"identifiers": [
		{"account_id": "ACC001", "identifier_type": "IP", "identifier_value": "10.0.0.9"},
		{"account_id": "ACC002", "identifier_type": "IP", "identifier_value": "10.0.0.9"}
	],
	"touchpoints": [],
	"transactions": [
		{"txn_id": "TXN001", "sender": "ACC001", "receiver": "ACC002", "amount": 5000, "timestamp": 1700000000}
	]
}`

func newTestRouter(t *testing.T, health HealthService) (http.Handler, *service.ScoringService) {
	t.Helper()
	svc := service.NewScoringService(nil, nil)
	handler := NewRouter(testLogger(), RouterDependencies{
		Health: health,
		API:    NewAPIHandlers(testLogger(), svc),
	})
	return handler, svc
}

func scoreSample(t *testing.T, handler http.Handler) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(sampleSnapshotJSON))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("scoring returned status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleScore(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(sampleSnapshotJSON))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status   string `json:"status"`
		Accounts int    `json:"accounts"`
		Nodes    int    `json:"nodes"`
		Edges    int    `json:"edges"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "scored" || resp.Accounts != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
	// 3 accounts + 1 identifier node; shared IP pair + 1 transfer.
	if resp.Nodes != 4 || resp.Edges != 3 {
		t.Errorf("nodes = %d, edges = %d", resp.Nodes, resp.Edges)
	}
}

func TestHandleScore_ValidationFailure(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	payload := strings.Replace(sampleSnapshotJSON, `"amount": 5000`, `"amount": -5`, 1)
	req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, expected 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "TXN001") {
		t.Errorf("error should identify the offending record: %s", rec.Body.String())
	}
}

func TestHandleScore_MalformedJSON(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
}

func TestHandleScores(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/scores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status before scoring = %d, expected 404", rec.Code)
	}

	scoreSample(t, handler)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scores?pageSize=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Items []struct {
			AccountID string `json:"accountId"`
			Tier      string `json:"tier"`
		} `json:"items"`
		Pagination struct {
			TotalItems int `json:"totalItems"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Items) != 2 || resp.Pagination.TotalItems != 3 || resp.Pagination.TotalPages != 2 {
		t.Errorf("unexpected page: %+v", resp)
	}
}

func TestHandleScores_UnknownTier(t *testing.T) {
	handler, _ := newTestRouter(t, nil)
	scoreSample(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scores?tier=BOGUS", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
}

func TestHandleScoreByID(t *testing.T) {
	handler, _ := newTestRouter(t, nil)
	scoreSample(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scores/ACC001", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccountID string `json:"accountId"`
		Flags     []struct {
			Name string `json:"name"`
		} `json:"flags"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.AccountID != "ACC001" {
		t.Errorf("accountId = %s", resp.AccountID)
	}
	if len(resp.Flags) == 0 {
		t.Error("ACC001 shares an IP and sends money, expected flags")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scores/ACC999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown account status = %d, expected 404", rec.Code)
	}
}

func TestHandleGraph(t *testing.T) {
	handler, _ := newTestRouter(t, nil)
	scoreSample(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graph", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Nodes []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"nodes"`
		Edges []struct {
			Type string `json:"type"`
		} `json:"edges"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Nodes) != 4 || len(resp.Edges) != 3 {
		t.Errorf("nodes = %d, edges = %d", len(resp.Nodes), len(resp.Edges))
	}
}

func TestHandleSummary(t *testing.T) {
	handler, _ := newTestRouter(t, nil)
	scoreSample(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Accounts   int            `json:"accounts"`
		TierCounts map[string]int `json:"tierCounts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Accounts != 3 {
		t.Errorf("accounts = %d", resp.Accounts)
	}
	total := 0
	for _, count := range resp.TierCounts {
		total += count
	}
	if total != 3 {
		t.Errorf("tier counts sum to %d, expected 3", total)
	}
}

func TestHealthz(t *testing.T) {
	probeHealthz := func(t *testing.T, health HealthService) (int, map[string]any) {
		t.Helper()
		handler, _ := newTestRouter(t, health)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		var payload map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		return rec.Code, payload
	}

	code, payload := probeHealthz(t, stubHealth{})
	if code != http.StatusOK || payload["graph"] != "ok" {
		t.Fatalf("healthy probe: code = %d, payload = %v", code, payload)
	}

	// No graph store attached is a supported deployment, not a failure.
	code, payload = probeHealthz(t, GraphHealthService{})
	if code != http.StatusOK || payload["graph"] != "disabled" {
		t.Fatalf("unconfigured probe: code = %d, payload = %v", code, payload)
	}

	code, payload = probeHealthz(t, stubHealth{err: errors.New("graph down")})
	if code != http.StatusServiceUnavailable || payload["graph"] != "unreachable" {
		t.Fatalf("degraded probe: code = %d, payload = %v", code, payload)
	}
	if payload["status"] != "degraded" {
		t.Errorf("degraded payload = %v", payload)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/scores", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, expected 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/score", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, expected 405", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	svc := service.NewScoringService(nil, nil)
	handler := NewRouter(testLogger(), RouterDependencies{
		API:            NewAPIHandlers(testLogger(), svc),
		AllowedOrigins: []string{"https://app.example.com"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/scores", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, expected 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow-origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/scores", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("rejected preflight status = %d, expected 403", rec.Code)
	}
}
