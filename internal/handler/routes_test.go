package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/viabilidade/backend/internal/allocation"
	"github.com/viabilidade/backend/internal/catalog"
	"github.com/viabilidade/backend/internal/repository"
	"github.com/viabilidade/backend/internal/service"
	"github.com/viabilidade/backend/internal/session"
	"github.com/viabilidade/backend/internal/storage"
)

type testDeps struct {
	projects *mockProjectService
	sessions *mockAllocationService
	history  *mockHistoryService
	analysis *mockAnalysisService
	reports  service.ReportService
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	return &testDeps{
		projects: &mockProjectService{},
		sessions: &mockAllocationService{},
		history:  &mockHistoryService{},
		analysis: &mockAnalysisService{},
		reports:  service.NewReportService(storage.NewLocalStorage(t.TempDir(), "/reports")),
	}
}

func (d *testDeps) mux(t *testing.T) *http.ServeMux {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	mux := http.NewServeMux()
	Routes(mux,
		New(&mockDB{}, "http://localhost:4321"),
		NewCatalogHandler(cat),
		NewProjectHandler(d.projects, d.analysis, d.reports),
		NewSessionHandler(d.sessions, d.analysis, d.reports),
		NewHistoryHandler(d.history),
	)
	return mux
}

func serve(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	code, _ := body["error"].(string)
	return code
}

func TestRespondError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&service.ValidationError{Field: "nome", Message: "must not be empty"}, http.StatusBadRequest, "validation_failed"},
		{service.ErrUnknownKind, http.StatusBadRequest, "unknown_kind"},
		{storage.ErrInvalidKey, http.StatusBadRequest, "invalid_key"},
		{fmt.Errorf("get: %w", repository.ErrNotFound), http.StatusNotFound, "not_found"},
		{service.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{&allocation.AmbiguousEditError{Items: []string{"A", "B"}}, http.StatusConflict, "ambiguous_edit"},
		{allocation.ErrItemSetMismatch, http.StatusConflict, "item_set_mismatch"},
		{session.ErrConflict, http.StatusConflict, "session_conflict"},
		{fmt.Errorf("%w: x", service.ErrUnknownItem), http.StatusUnprocessableEntity, "unknown_item"},
		{service.ErrUnknownCUB, http.StatusUnprocessableEntity, "unknown_cub"},
		{service.ErrAnalysisUnavailable, http.StatusServiceUnavailable, "analysis_unavailable"},
		{&allocation.ConfigurationError{Missing: []string{"X"}}, http.StatusInternalServerError, "bounds_not_configured"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, httptest.NewRequest("GET", "/", nil), tc.err, "test")
			if rec.Code != tc.status {
				t.Errorf("expected %d, got %d", tc.status, rec.Code)
			}
			if got := errorCode(t, rec); got != tc.code {
				t.Errorf("expected %q, got %q", tc.code, got)
			}
		})
	}
}

func TestCatalogHandler_Get(t *testing.T) {
	rec := serve(newTestDeps(t).mux(t), "GET", "/api/catalog", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		DirectPhases  []catalog.Entry `json:"direct_phases"`
		IndirectCosts []catalog.Entry `json:"indirect_costs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.DirectPhases) != 12 || len(body.IndirectCosts) != 13 {
		t.Errorf("unexpected catalog sizes: %d / %d", len(body.DirectPhases), len(body.IndirectCosts))
	}
}

func TestRoutes_HealthOK(t *testing.T) {
	rec := serve(newTestDeps(t).mux(t), "GET", "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
