package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/activity"
	"hrms-backend/internal/cascade"
	"hrms-backend/internal/services/health"
	"hrms-backend/internal/shared/config"
	"hrms-backend/internal/shared/metrics"
	"hrms-backend/internal/shared/server/middleware"
	"hrms-backend/internal/shared/server/respond"
	"hrms-backend/internal/stats"
)

// Rate limit groups.
const (
	groupRead  = "READ"
	groupWrite = "WRITE"
)

// RouterDeps carries the handlers NewRouter registers.
type RouterDeps struct {
	Config          config.Config
	CascadeHandler  *cascade.Handler
	StatsHandler    *stats.Handler
	ActivityHandler *activity.Handler
	Health          *health.Service
	Limiter         middleware.Limiter
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
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		st := deps.Health.Check(c.Request.Context())
		code := http.StatusOK
		if !st.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, st)
	})

	limited := api.Group("")
	if rules := rateLimitRules(deps.Config); rules != nil {
		limited.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        rules,
			DefaultGroup: groupWrite,
			GroupFor:     groupForMethod,
			Limiter:      deps.Limiter,
		}))
	}
	if deps.CascadeHandler != nil {
		deps.CascadeHandler.RegisterRoutes(limited)
	}
	if deps.StatsHandler != nil {
		deps.StatsHandler.RegisterRoutes(limited)
	}
	if deps.ActivityHandler != nil {
		limited.GET("/activity", deps.ActivityHandler.List)
	}

	return r
}

// Reads get five times the write budget.
func rateLimitRules(cfg config.Config) map[string]middleware.RateLimitRule {
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil
	}
	return map[string]middleware.RateLimitRule{
		groupWrite: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
		groupRead:  {Rate: cfg.RateLimitRPS * 5, Burst: cfg.RateLimitBurst * 5},
	}
}

func groupForMethod(c *gin.Context) string {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return groupRead
	default:
		return groupWrite
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
