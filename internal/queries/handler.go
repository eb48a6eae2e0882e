package queries

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"screener-backend/internal/jobs"
	"screener-backend/internal/shared/server/middleware"
	"screener-backend/internal/shared/server/respond"
	"screener-backend/internal/usage"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches query routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs/:jobId/queries", h.ask)
	rg.GET("/jobs/:jobId/queries", h.history)
	rg.GET("/jobs/:jobId/queries/export", h.export)
}

type askRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	QueryID    string    `json:"queryId"`
	Kind       string    `json:"kind"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Sources    []Source  `json:"sources"`
	TokensUsed int       `json:"tokensUsed"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toResponse(q Query) queryResponse {
	sources := q.Sources
	if sources == nil {
		sources = []Source{}
	}
	return queryResponse{
		QueryID:    q.ID,
		Kind:       q.Kind,
		Question:   q.Question,
		Answer:     q.Answer,
		Sources:    sources,
		TokensUsed: q.TokensUsed,
		CreatedAt:  q.CreatedAt,
	}
}

func (h *Handler) ask(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	record, err := h.Svc.Ask(c.Request.Context(), userID, c.Param("jobId"), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		case errors.Is(err, ErrNoDocuments):
			respond.Error(c, http.StatusConflict, "no_documents", "upload at least one resume before asking questions", nil)
		case errors.Is(err, usage.ErrQuotaExceeded):
			respond.Error(c, http.StatusForbidden, "limit_exceeded", "monthly query quota exceeded", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to answer question", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(record))
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	items, err := h.Svc.History(c.Request.Context(), userID, c.Param("jobId"), limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list queries", nil)
		}
		return
	}

	resp := make([]queryResponse, 0, len(items))
	for _, q := range items {
		resp = append(resp, toResponse(q))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) export(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	jobID := c.Param("jobId")

	items, err := h.Svc.Export(c.Request.Context(), userID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrProRequired):
			respond.Error(c, http.StatusForbidden, "limit_exceeded", "history export requires the pro tier", nil)
		case errors.Is(err, jobs.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export queries", nil)
		}
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="queries-`+jobID+`.csv"`)
	c.Status(http.StatusOK)
	if err := WriteCSV(c.Writer, items); err != nil {
		// Headers are already written; log and abort the stream.
		_ = c.Error(err)
	}
}
