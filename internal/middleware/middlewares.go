package middleware

import (
	"github.com/deppfellow/userstore/internal/server"
)

// Middlewares groups every middleware component so the router is wired
// from one value.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers and the
	// global error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer attaches a request-scoped logger to each request.
	ContextEnhancer *ContextEnhancer

	// Tracing reports requests to New Relic when it is configured.
	Tracing *TracingMiddleware

	// RateLimit throttles clients by IP when configured.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares takes the New Relic application from s.LoggerService; it
// is nil when New Relic is off.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, s.LoggerService.GetApplication()),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
