// Catalog HTTP handlers.
//
// This file exposes the metadata browse/search endpoints:
//   - GET /catalog/popular   (merged movie/series browse page)
//   - GET /catalog/search    (free-text multi search)
//
// Both endpoints proxy the catalog provider without persisting anything.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zerodown/zrs-backend/internal/tmdb"
)

// CatalogListResponse wraps browse and search results.
type CatalogListResponse struct {
	Results []tmdb.MediaSummary `json:"results"`
}

// Popular returns the merged, shuffled popular page for movies and series.
func (h *Handlers) Popular(c *gin.Context) {
	results, err := h.catalogSvc.Popular(c.Request.Context())
	if err != nil {
		failUpstream(c, err)
		return
	}
	ok(c, http.StatusOK, CatalogListResponse{Results: results})
}

// Search runs a free-text search across movies and series. The q query
// parameter is required.
func (h *Handlers) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "a search term is required")
		return
	}

	results, err := h.catalogSvc.SearchMulti(c.Request.Context(), query)
	if err != nil {
		failUpstream(c, err)
		return
	}
	ok(c, http.StatusOK, CatalogListResponse{Results: results})
}
