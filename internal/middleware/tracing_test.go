package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/userstore/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingMiddleware_WithoutNewRelic(t *testing.T) {
	tm := NewTracingMiddleware(&server.Server{}, nil)

	e := echo.New()
	e.Use(tm.NewRelicMiddleware(), tm.EnhanceTracing())
	e.GET("/ok", func(c echo.Context) error {
		return c.String(http.StatusTeapot, "short and stout")
	})

	failure := errors.New("boom")
	var seen error
	e.GET("/fail", func(c echo.Context) error {
		return failure
	})
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		seen = err
		_ = c.NoContent(http.StatusInternalServerError)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Same(t, failure, seen, "errors reach the error handler unchanged")
}
