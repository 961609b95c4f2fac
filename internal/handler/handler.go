package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/viabilidade/backend/internal/allocation"
	"github.com/viabilidade/backend/internal/repository"
	"github.com/viabilidade/backend/internal/service"
	"github.com/viabilidade/backend/internal/session"
	"github.com/viabilidade/backend/internal/storage"
)

// maxBodyBytes はリクエストボディの上限
const maxBodyBytes = 1 << 20

type Handler struct {
	db          repository.DB
	frontendURL string
}

func New(db repository.DB, frontendURL string) *Handler {
	return &Handler{db: db, frontendURL: frontendURL}
}

func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.frontendURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// decodeJSON はボディを v にデコードする。失敗時は 400 を書いて false を返す
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

// respondError はサービス層のエラーを HTTP ステータスとエラーコードに変換する。
// 5xx のみ slog.Error で記録する
func respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *service.ValidationError
	var cfgErr *allocation.ConfigurationError
	var ambiguous *allocation.AmbiguousEditError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "validation_failed",
			"field":   verr.Field,
			"message": verr.Message,
		})
	case errors.Is(err, service.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, "unknown_kind")
	case errors.Is(err, storage.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, "invalid_key")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found")
	case errors.As(err, &ambiguous):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "ambiguous_edit", "items": ambiguous.Items})
	case errors.Is(err, allocation.ErrItemSetMismatch):
		writeError(w, http.StatusConflict, "item_set_mismatch")
	case errors.Is(err, session.ErrConflict):
		writeError(w, http.StatusConflict, "session_conflict")
	case errors.Is(err, service.ErrUnknownItem):
		writeError(w, http.StatusUnprocessableEntity, "unknown_item")
	case errors.Is(err, service.ErrUnknownCUB):
		writeError(w, http.StatusUnprocessableEntity, "unknown_cub")
	case errors.Is(err, service.ErrAnalysisUnavailable):
		writeError(w, http.StatusServiceUnavailable, "analysis_unavailable")
	case errors.As(err, &cfgErr):
		slog.Error(msg, "error", err, "missing", cfgErr.Missing, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "bounds_not_configured")
	default:
		slog.Error(msg, "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
