package ranking

import (
	"errors"
	"net/http"

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

// RegisterRoutes attaches ranking routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs/:jobId/rank", h.rank)
}

type rankRequest struct {
	Query string `json:"query"`
}

func (h *Handler) rank(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	// The body is optional; an empty query ranks against the job description.
	var req rankRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	result, err := h.Svc.Rank(c.Request.Context(), userID, c.Param("jobId"), req.Query)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		case errors.Is(err, usage.ErrQuotaExceeded):
			respond.Error(c, http.StatusForbidden, "limit_exceeded", "monthly query quota exceeded", nil)
		case errors.Is(err, ErrLLMFailed):
			respond.Error(c, http.StatusBadGateway, "llm_failed", "ranking could not be completed, try again", nil)
		case errors.Is(err, jobs.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to rank candidates", nil)
		}
		return
	}

	resp := gin.H{
		"queryId":    result.QueryID,
		"candidates": result.Candidates,
		"tokensUsed": result.TokensUsed,
		"createdAt":  result.CreatedAt,
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	respond.JSON(c, http.StatusOK, resp)
}
