package api

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/quizfiesta/funnel-api/internal/audiocache"
	"github.com/quizfiesta/funnel-api/internal/config"
	"github.com/quizfiesta/funnel-api/internal/ratelimit"
	"github.com/quizfiesta/funnel-api/internal/service/funnel"
	"github.com/quizfiesta/funnel-api/internal/service/order"
)

// Handlers holds the dependencies shared by all endpoint handlers.
type Handlers struct {
	funnel        *funnel.Service
	orders        *order.Service
	limiter       ratelimit.Limiter
	audio         audiocache.Cache
	webhookSecret string
	retryAfterSec int
	db            *sql.DB
	redisClient   *redis.Client
}

// NewHandlers wires handler dependencies. audio may be nil when the cache
// is disabled; the audio endpoints then answer 503.
func NewHandlers(
	cfg *config.Config,
	funnelSvc *funnel.Service,
	orderSvc *order.Service,
	limiter ratelimit.Limiter,
	audio audiocache.Cache,
	db *sql.DB,
	redisClient *redis.Client,
) *Handlers {
	return &Handlers{
		funnel:        funnelSvc,
		orders:        orderSvc,
		limiter:       limiter,
		audio:         audio,
		webhookSecret: cfg.Webhook.Secret,
		retryAfterSec: cfg.RateLimit.WindowSeconds,
		db:            db,
		redisClient:   redisClient,
	}
}

// clientIP derives the caller's address for rate limiting. Precedence:
// first hop of X-Forwarded-For, then X-Real-Ip, then the CDN header, else
// "unknown" so unattributable traffic shares one bucket.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if cf := r.Header.Get("CF-Connecting-Ip"); cf != "" {
		return cf
	}
	return "unknown"
}
