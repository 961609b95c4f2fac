package handler

import (
	"net/http"

	"github.com/viabilidade/backend/internal/catalog"
)

// CatalogHandler は参照テーブル（配分の範囲、係数、CUB など）を返す
type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// Get は GET /api/catalog を処理する
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, h.catalog)
}
