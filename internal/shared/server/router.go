package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/services/health"
	"woundtrack-backend/internal/shared/config"
	"woundtrack-backend/internal/shared/metrics"
	"woundtrack-backend/internal/shared/server/middleware"
	"woundtrack-backend/internal/shared/server/respond"
)

const apiPrefix = "/api/v1"

// RouteRegistrar is implemented by feature handlers.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config      config.Config
	Profiles    ProfileFetcher
	Health      *health.Service
	Handlers    []RouteRegistrar
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Session(apiPrefix+"/health", "/metrics"),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        defaultRateLimitRules,
			DefaultGroup: "DEFAULT",
			GroupFor:     rateLimitGroup,
			Limiter:      deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		ok, checks := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})
	if deps.Profiles != nil {
		registerMeRoutes(api, deps.Profiles)
	}
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

var defaultRateLimitRules = map[string]middleware.RateLimitRule{
	"DEFAULT": {Rate: 2, Burst: 20},
	"POLLING": {Rate: 5, Burst: 30},
	"UPLOAD":  {Rate: 0.5, Burst: 5},
}

// rateLimitGroup gives wizard state polling a higher allowance and image uploads a lower one.
func rateLimitGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case c.Request.Method == http.MethodGet && strings.HasSuffix(path, "/wound/add-update/:wizardId"):
		return "POLLING"
	case c.Request.Method == http.MethodPost && strings.HasSuffix(path, "/wound/add-update/:wizardId/image"):
		return "UPLOAD"
	default:
		return "DEFAULT"
	}
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
