package middleware

import (
	"math"
	"net/http"

	"github.com/deppfellow/userstore/internal/errs"
	"github.com/deppfellow/userstore/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

var rateLimitedCode = "RATE_LIMITED"

type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Enabled reports whether a rate limit is configured.
func (r *RateLimitMiddleware) Enabled() bool {
	return r.server.Config.Server.RateLimit > 0
}

// Limit returns an in-memory, per-IP token bucket limiter. Rejections are
// logged and answered with a 429 in the usual error shape.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	cfg := r.server.Config.Server
	burst := cfg.RateLimitBurst
	if burst == 0 {
		burst = max(1, int(math.Ceil(cfg.RateLimit)))
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(cfg.RateLimit),
		Burst: burst,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c, identifier)
			return &errs.HTTPError{
				Code:     rateLimitedCode,
				Message:  "Too many requests, slow down",
				Status:   http.StatusTooManyRequests,
				Override: true,
			}
		},
	})
}

// RecordRateLimitHit logs the rejection and, with New Relic on, records a
// RateLimitHit event.
func (r *RateLimitMiddleware) RecordRateLimitHit(c echo.Context, identifier string) {
	if app := r.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("RateLimitHit", map[string]any{
			"endpoint":   c.Path(),
			"identifier": identifier,
		})
	}

	GetLogger(c).Warn().
		Str("endpoint", c.Path()).
		Str("identifier", identifier).
		Msg("rate limit hit")
}
