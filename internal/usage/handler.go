package usage

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"screener-backend/internal/shared/server/middleware"
	"screener-backend/internal/shared/server/respond"
)

// TierResolver maps a principal to its subscription tier.
type TierResolver interface {
	TierFor(ctx context.Context, userID string) string
}

// Handler exposes the current month's quota counter.
type Handler struct {
	Svc   *Service
	Tiers TierResolver
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, tiers TierResolver) *Handler {
	return &Handler{Svc: svc, Tiers: tiers}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.get)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	tier := h.Tiers.TierFor(c.Request.Context(), userID)

	u, err := h.Svc.Get(c.Request.Context(), userID, tier)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load usage", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"tier":        u.Tier,
		"limit":       u.Limit,
		"used":        u.Used,
		"remaining":   u.Remaining(),
		"periodStart": u.PeriodStart,
	})
}
