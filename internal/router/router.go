// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"github.com/deppfellow/userstore/internal/handler"
	"github.com/deppfellow/userstore/internal/middleware"
	"github.com/deppfellow/userstore/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the echo instance with global middleware, system routes
// and the versioned API.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// Order matters: the request ID and the New Relic transaction must exist
	// before the logger that carries them, and the logger before anything
	// that logs.
	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	if middlewares.RateLimit.Enabled() {
		v1.Use(middlewares.RateLimit.Limit())
	}
	registerUserRoutes(v1, h)

	return router
}
