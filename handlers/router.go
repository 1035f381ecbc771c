package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/teamkb/teamkb/internal/activity"
	"github.com/teamkb/teamkb/internal/config"
	"github.com/teamkb/teamkb/internal/document/service"
	"github.com/teamkb/teamkb/internal/revision"
	"github.com/teamkb/teamkb/internal/sessions"
	"github.com/teamkb/teamkb/internal/tokens"
	"github.com/teamkb/teamkb/internal/users"
	"github.com/teamkb/teamkb/internal/versions"
	"github.com/teamkb/teamkb/pkg/middleware"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Config      *config.Config
	Users       *users.Service
	Issuer      *tokens.Issuer
	Blacklist   *sessions.Blacklist
	Coordinator *revision.Coordinator
	Documents   *service.Service
	Ledger      *versions.Ledger
	Activity    *activity.Service

	// Redis backs the shared rate limiter when RateLimit.UseRedis is set.
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
	Ready    map[string]ReadinessCheck
}

// NewRouter builds the gin engine: operational routes at the root, the API
// under /api.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.CORS(d.Config.Server.CORSOrigin))

	RegisterHealth(r, d.Ready, d.Gatherer)
	RegisterSwagger(r)

	limit := rateLimiter(d)
	api := r.Group("/api")
	public := api.Group("", limit...)
	protected := api.Group("", append([]gin.HandlerFunc{middleware.AuthMiddleware(d.Issuer, d.Blacklist)}, limit...)...)

	NewUserHandler(d.Users, d.Issuer, d.Blacklist, d.Config.Server.Production()).Register(public, protected)
	NewDocumentHandler(d.Coordinator, d.Documents).Register(protected)
	NewVersionHandler(d.Ledger, d.Coordinator).Register(protected)
	NewActivityHandler(d.Activity).Register(protected)
	return r
}

// rateLimiter returns the configured limiter, or nothing when disabled.
// Behind auth it keys by user, elsewhere by client IP.
func rateLimiter(d Deps) []gin.HandlerFunc {
	rl := d.Config.RateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.UseRedis && d.Redis != nil {
		win := time.Duration(rl.WindowSeconds) * time.Second
		return []gin.HandlerFunc{middleware.RedisRateLimitMiddleware(d.Redis, rl.RPS, rl.Burst, win)}
	}
	return []gin.HandlerFunc{middleware.RateLimitMiddleware(rl.RPS, rl.Burst)}
}
