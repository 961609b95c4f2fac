package handler

import "net/http"

// Routes registers every API route on mux.
func Routes(mux *http.ServeMux, h *Handler, catalog *CatalogHandler, projects *ProjectHandler, sessions *SessionHandler, history *HistoryHandler) {
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/catalog", catalog.Get)

	// プロジェクト API
	mux.HandleFunc("GET /api/projects", projects.List)
	mux.HandleFunc("POST /api/projects", projects.Create)
	mux.HandleFunc("GET /api/projects/{id}", projects.Get)
	mux.HandleFunc("PUT /api/projects/{id}", projects.Update)
	mux.HandleFunc("DELETE /api/projects/{id}", projects.Delete)
	mux.HandleFunc("GET /api/projects/{id}/results", projects.Results)
	mux.HandleFunc("POST /api/projects/{id}/analysis", projects.Analysis)
	mux.HandleFunc("GET /api/projects/{id}/report", projects.Report)
	mux.HandleFunc("GET /api/projects/{id}/reports", projects.Reports)

	// 編集セッション API
	mux.HandleFunc("POST /api/sessions", sessions.Open)
	mux.HandleFunc("GET /api/sessions/{sid}", sessions.Get)
	mux.HandleFunc("PATCH /api/sessions/{sid}", sessions.Patch)
	mux.HandleFunc("DELETE /api/sessions/{sid}", sessions.Discard)
	mux.HandleFunc("POST /api/sessions/{sid}/save", sessions.Save)
	mux.HandleFunc("POST /api/sessions/{sid}/cub", sessions.ApplyCUB)
	mux.HandleFunc("GET /api/sessions/{sid}/results", sessions.Results)
	mux.HandleFunc("POST /api/sessions/{sid}/analysis", sessions.Analysis)
	mux.HandleFunc("GET /api/sessions/{sid}/report", sessions.Report)
	// item は URL エンコードされた項目名（"/" を含む名前は %2F）
	mux.HandleFunc("PUT /api/sessions/{sid}/allocations/{kind}/items/{item}", sessions.EditItem)
	mux.HandleFunc("POST /api/sessions/{sid}/allocations/{kind}/items/{item}/reference", sessions.ApplyReference)
	mux.HandleFunc("POST /api/sessions/{sid}/allocations/{kind}/reset", sessions.Reset)
	mux.HandleFunc("POST /api/sessions/{sid}/allocations/{kind}/archive", sessions.Archive)

	// 配分履歴 API
	mux.HandleFunc("GET /api/history", history.List)
	mux.HandleFunc("GET /api/history/{id}", history.Get)
}
