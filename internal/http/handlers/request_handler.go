// Request HTTP handlers.
//
// This file exposes the media request endpoints:
//   - POST /requests        (submit a new request)
//   - GET  /requests/mine   (the caller's requests, paginated)
//
// Submission runs the full pipeline — catalog detail fetch, advisory library
// probe, duplicate rejection, persistence, admin notification — inside the
// request service; handlers only translate errors into the HTTP taxonomy.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/services"
	"github.com/zerodown/zrs-backend/internal/utils"
)

//
// DTOs
//

// CreateRequestRequest is the JSON payload for submitting a media request.
type CreateRequestRequest struct {
	MediaID   int64            `json:"mediaId" binding:"required"`
	MediaType domain.MediaType `json:"mediaType" binding:"required"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// ListRequestsResponse wraps a page of requests and pagination information.
type ListRequestsResponse struct {
	Requests   []domain.Request `json:"requests"`
	Pagination Pagination       `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// CreateRequest submits a media request on behalf of the authenticated
// caller and returns the created record.
func (h *Handlers) CreateRequest(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.MediaType.Valid() || req.MediaID <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mediaId and mediaType (movie|tv) are required")
		return
	}

	created, err := h.reqSvc.Submit(c.Request.Context(), req.MediaID, req.MediaType, userID(c), userName(c))
	if err != nil {
		var dup *services.DuplicateRequestError
		switch {
		case errors.As(err, &dup):
			fail(c, http.StatusConflict, ErrCodeConflict, dup.Error())
		case errors.Is(err, services.ErrAlreadyAvailable):
			fail(c, http.StatusConflict, ErrCodeConflict, "this title is already available on the server")
		case errors.Is(err, services.ErrMediaNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no such title in the catalog")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, created)
}

// MyRequests lists the authenticated caller's requests, newest first,
// paginated in memory (per-user request counts are small).
func (h *Handlers) MyRequests(c *gin.Context) {
	all, err := h.reqSvc.ListByRequester(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	page, pageSize := clampPagination(c)
	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	ok(c, http.StatusOK, ListRequestsResponse{
		Requests: all[start:end],
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
