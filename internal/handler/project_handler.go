package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/viabilidade/backend/internal/feasibility"
	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/service"
	"github.com/viabilidade/backend/internal/storage"
)

// ProjectHandler はプロジェクト CRUD と試算結果・分析・レポートの HTTP ハンドラ
type ProjectHandler struct {
	projects service.ProjectService
	analysis service.AnalysisService
	reports  service.ReportService
}

// NewProjectHandler は ProjectHandler を生成する
func NewProjectHandler(projects service.ProjectService, analysis service.AnalysisService, reports service.ReportService) *ProjectHandler {
	return &ProjectHandler{projects: projects, analysis: analysis, reports: reports}
}

// List は GET /api/projects を処理する
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	projects, err := h.projects.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, err, "project list failed")
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// Get は GET /api/projects/{id} を処理する
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "project get failed")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Create は POST /api/projects を処理する
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var project model.Project
	if !decodeJSON(w, r, &project) {
		return
	}
	project.ID = ""
	if err := h.projects.Create(r.Context(), &project); err != nil {
		respondError(w, r, err, "project create failed")
		return
	}
	writeJSON(w, http.StatusCreated, &project)
}

// Update は PUT /api/projects/{id} を処理する
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var project model.Project
	if !decodeJSON(w, r, &project) {
		return
	}
	project.ID = r.PathValue("id")
	if err := h.projects.Update(r.Context(), &project); err != nil {
		respondError(w, r, err, "project update failed")
		return
	}
	writeJSON(w, http.StatusOK, &project)
}

// Delete は DELETE /api/projects/{id} を処理する
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err, "project delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Results は GET /api/projects/{id}/results を処理する
func (h *ProjectHandler) Results(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "project results failed")
		return
	}
	writeJSON(w, http.StatusOK, feasibility.Compute(project))
}

// Analysis は POST /api/projects/{id}/analysis を処理する
func (h *ProjectHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "project analysis failed")
		return
	}
	analysis, err := h.analysis.Analyze(r.Context(), project)
	if err != nil {
		respondError(w, r, err, "project analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// Report は GET /api/projects/{id}/report を処理する。
// ?analysis=true で AI 分析を含め、?archive=true でレポートを保存して URL を返す
func (h *ProjectHandler) Report(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "project report failed")
		return
	}
	markdown := optionalAnalysis(r, h.analysis, project)

	if r.URL.Query().Get("archive") == "true" {
		url, err := h.reports.Archive(r.Context(), project, markdown)
		if err != nil {
			respondError(w, r, err, "report archive failed")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"url": url})
		return
	}
	renderReport(w, r, h.reports, project, markdown)
}

// Reports は GET /api/projects/{id}/reports を処理する
func (h *ProjectHandler) Reports(w http.ResponseWriter, r *http.Request) {
	objects, err := h.reports.List(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "report list failed")
		return
	}
	if objects == nil {
		objects = []storage.Object{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": objects})
}

// optionalAnalysis は ?analysis=true のとき分析を生成する。失敗してもレポートは分析なしで出す
func optionalAnalysis(r *http.Request, svc service.AnalysisService, project *model.Project) string {
	if r.URL.Query().Get("analysis") != "true" {
		return ""
	}
	a, err := svc.Analyze(r.Context(), project)
	if err != nil {
		if !errors.Is(err, service.ErrAnalysisUnavailable) {
			slog.Warn("report without analysis", "project", project.Name, "error", err)
		}
		return ""
	}
	return a.Markdown
}

func renderReport(w http.ResponseWriter, r *http.Request, svc service.ReportService, project *model.Project, markdown string) {
	var buf bytes.Buffer
	if err := svc.Render(r.Context(), project, markdown, &buf); err != nil {
		respondError(w, r, err, "report render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
