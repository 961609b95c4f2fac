package handler

import (
	"net/http"

	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/service"
)

// HistoryHandler は配分履歴（参照プロジェクト）の HTTP ハンドラ
type HistoryHandler struct {
	svc service.HistoryService
}

// NewHistoryHandler は HistoryHandler を生成する
func NewHistoryHandler(svc service.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// List は GET /api/history?kind=direct|indirect を処理する
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var kind model.Kind
	if k := r.URL.Query().Get("kind"); k != "" {
		parsed, err := model.ParseKind(k)
		if err != nil {
			respondError(w, r, err, "history list failed")
			return
		}
		kind = parsed
	}
	entries, err := h.svc.List(r.Context(), kind)
	if err != nil {
		respondError(w, r, err, "history list failed")
		return
	}
	if entries == nil {
		entries = []*model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// Get は GET /api/history/{id} を処理する
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "history get failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
