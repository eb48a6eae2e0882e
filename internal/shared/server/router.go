package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "screener-backend/internal/auth"
	"screener-backend/internal/documents"
	"screener-backend/internal/jobs"
	"screener-backend/internal/queries"
	"screener-backend/internal/ranking"
	"screener-backend/internal/shared/config"
	"screener-backend/internal/shared/metrics"
	"screener-backend/internal/shared/ratelimit"
	"screener-backend/internal/shared/server/middleware"
	"screener-backend/internal/shared/server/respond"
	"screener-backend/internal/usage"
	"screener-backend/internal/users"
)

// Query-heavy routes share one rate-limit budget; everything else another.
const (
	rateGroupQuery   = "QUERY"
	rateGroupDefault = "DEFAULT"

	queryRequestsPerMinute   = 30
	defaultRequestsPerMinute = 120
)

// RouterDeps carries everything NewRouter needs; bootstrap assembles it.
type RouterDeps struct {
	Config          config.Config
	JobsHandler     *jobs.Handler
	DocumentHandler *documents.Handler
	QueriesHandler  *queries.Handler
	RankingHandler  *ranking.Handler
	UsageHandler    *usage.Handler
	UsersHandler    *users.Handler
	GoogleAuth      *googleauth.GoogleService
	RateLimitStore  ratelimit.Store
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Store:        deps.RateLimitStore,
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupQuery:   {Limit: queryRequestsPerMinute, Window: time.Minute},
				rateGroupDefault: {Limit: defaultRequestsPerMinute, Window: time.Minute},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.JobsHandler != nil {
		deps.JobsHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.QueriesHandler != nil {
		deps.QueriesHandler.RegisterRoutes(api)
	}
	if deps.RankingHandler != nil {
		deps.RankingHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
	}

	return r
}

// rateGroupFor puts LLM-backed routes in the tighter budget.
func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return rateGroupDefault
	}
	path := c.FullPath()
	if strings.HasSuffix(path, "/queries") || strings.HasSuffix(path, "/rank") {
		return rateGroupQuery
	}
	return rateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
