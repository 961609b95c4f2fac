package handler

import (
	"net/http"

	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/service"
)

// SessionHandler は編集セッション（下書き）の HTTP ハンドラ
type SessionHandler struct {
	sessions service.AllocationService
	analysis service.AnalysisService
	reports  service.ReportService
}

// NewSessionHandler は SessionHandler を生成する
func NewSessionHandler(sessions service.AllocationService, analysis service.AnalysisService, reports service.ReportService) *SessionHandler {
	return &SessionHandler{sessions: sessions, analysis: analysis, reports: reports}
}

// Open は POST /api/sessions を処理する。
// project_id があれば保存済みプロジェクトを、なければ nome で新規プロジェクトを開く
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"project_id"`
		Name      string `json:"nome"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		view *service.SessionView
		err  error
	)
	if req.ProjectID != "" {
		view, err = h.sessions.Open(r.Context(), req.ProjectID)
	} else {
		view, err = h.sessions.OpenNew(r.Context(), req.Name)
	}
	if err != nil {
		respondError(w, r, err, "session open failed")
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get は GET /api/sessions/{sid} を処理する
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Get(r.Context(), r.PathValue("sid"))
	if err != nil {
		respondError(w, r, err, "session get failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Patch は PATCH /api/sessions/{sid} を処理する
func (h *SessionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch service.DraftPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	view, err := h.sessions.UpdateDraft(r.Context(), r.PathValue("sid"), patch)
	if err != nil {
		respondError(w, r, err, "session update failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Discard は DELETE /api/sessions/{sid} を処理する
func (h *SessionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Discard(r.Context(), r.PathValue("sid")); err != nil {
		respondError(w, r, err, "session discard failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save は POST /api/sessions/{sid}/save を処理する
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	project, err := h.sessions.Save(r.Context(), r.PathValue("sid"))
	if err != nil {
		respondError(w, r, err, "session save failed")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ApplyCUB は POST /api/sessions/{sid}/cub を処理する
func (h *SessionHandler) ApplyCUB(w http.ResponseWriter, r *http.Request) {
	var req struct {
		State    string `json:"estado"`
		Standard string `json:"padrao"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.sessions.ApplyCUB(r.Context(), r.PathValue("sid"), req.State, req.Standard)
	if err != nil {
		respondError(w, r, err, "cub apply failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// EditItem は PUT /api/sessions/{sid}/allocations/{kind}/items/{item} を処理する
func (h *SessionHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(w, r, err, "allocation edit failed")
		return
	}
	var req struct {
		Percentual *float64 `json:"percentual"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Percentual == nil {
		writeError(w, http.StatusBadRequest, "percentual_required")
		return
	}
	res, err := h.sessions.EditItem(r.Context(), r.PathValue("sid"), kind, r.PathValue("item"), *req.Percentual)
	if err != nil {
		respondError(w, r, err, "allocation edit failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ApplyReference は POST /api/sessions/{sid}/allocations/{kind}/items/{item}/reference を処理する
func (h *SessionHandler) ApplyReference(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(w, r, err, "reference apply failed")
		return
	}
	var req struct {
		HistoryID string `json:"history_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.HistoryID == "" {
		writeError(w, http.StatusBadRequest, "history_id_required")
		return
	}
	res, err := h.sessions.ApplyReference(r.Context(), r.PathValue("sid"), kind, r.PathValue("item"), req.HistoryID)
	if err != nil {
		respondError(w, r, err, "reference apply failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reset は POST /api/sessions/{sid}/allocations/{kind}/reset を処理する
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(w, r, err, "allocation reset failed")
		return
	}
	view, err := h.sessions.ResetDefaults(r.Context(), r.PathValue("sid"), kind)
	if err != nil {
		respondError(w, r, err, "allocation reset failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Archive は POST /api/sessions/{sid}/allocations/{kind}/archive を処理する
func (h *SessionHandler) Archive(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(w, r, err, "allocation archive failed")
		return
	}
	entry, err := h.sessions.Archive(r.Context(), r.PathValue("sid"), kind)
	if err != nil {
		respondError(w, r, err, "allocation archive failed")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Results は GET /api/sessions/{sid}/results を処理する
func (h *SessionHandler) Results(w http.ResponseWriter, r *http.Request) {
	m, err := h.sessions.Results(r.Context(), r.PathValue("sid"))
	if err != nil {
		respondError(w, r, err, "session results failed")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Analysis は POST /api/sessions/{sid}/analysis を処理する（未保存の下書きも対象）
func (h *SessionHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Get(r.Context(), r.PathValue("sid"))
	if err != nil {
		respondError(w, r, err, "session analysis failed")
		return
	}
	analysis, err := h.analysis.Analyze(r.Context(), view.Project)
	if err != nil {
		respondError(w, r, err, "session analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// Report は GET /api/sessions/{sid}/report を処理する
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Get(r.Context(), r.PathValue("sid"))
	if err != nil {
		respondError(w, r, err, "session report failed")
		return
	}
	renderReport(w, r, h.reports, view.Project, optionalAnalysis(r, h.analysis, view.Project))
}
