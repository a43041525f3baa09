package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/userstore/internal/config"
	"github.com/deppfellow/userstore/internal/errs"
	"github.com/deppfellow/userstore/internal/handler"
	"github.com/deppfellow/userstore/internal/middleware"
	"github.com/deppfellow/userstore/internal/model"
	"github.com/deppfellow/userstore/internal/server"
	"github.com/deppfellow/userstore/internal/service"
	"github.com/deppfellow/userstore/internal/service/servicetest"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loggerPkg "github.com/deppfellow/userstore/internal/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testAPI struct {
	router  *echo.Echo
	store   *servicetest.MemoryStore
	pingErr error
}

func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()
	return newTestAPIWithService(t, nil, mutate...)
}

func newTestAPIWithService(t *testing.T, loggerService *loggerPkg.LoggerService, mutate ...func(*config.Config)) *testAPI {
	t.Helper()

	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:               "0",
			CORSAllowedOrigins: []string{"*"},
		},
	}
	for _, m := range mutate {
		m(cfg)
	}

	logger := zerolog.Nop()
	s := &server.Server{Config: cfg, Logger: &logger, LoggerService: loggerService}

	api := &testAPI{store: servicetest.NewMemoryStore()}
	h := &handler.Handlers{
		Health: handler.NewHealthHandler(s, pingFunc(func(context.Context) error { return api.pingErr })),
		Users:  handler.NewUserHandler(s, service.NewUserService(api.store, &logger)),
	}
	api.router = NewRouter(s, h)
	return api
}

func (a *testAPI) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const testUser = `{"name":"Test User","age":25,"email":"test@example.com"}`

func TestCreateUser(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/users", testUser)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user := decode[model.User](t, rec)
	assert.Equal(t, model.User{ID: 1, Name: "Test User", Age: 25, Email: "test@example.com"}, user)

	t.Run("duplicate email", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/users", `{"name":"Other","age":30,"email":"test@example.com"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode[errs.HTTPError](t, rec)
		assert.Equal(t, "USER_ALREADY_EXISTS", body.Code)
		assert.Equal(t, "A User with this Email already exists", body.Message)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/users", `{"name":"Bad","age":30,"email":"invalid-email"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode[errs.HTTPError](t, rec)
		assert.Equal(t, []errs.FieldError{{Field: "email", Error: "must be a valid email address"}}, body.Errors)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/users", `{"email":"someone@example.com"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode[errs.HTTPError](t, rec)
		assert.ElementsMatch(t, []errs.FieldError{
			{Field: "name", Error: "is required"},
			{Field: "age", Error: "is required"},
		}, body.Errors)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/users", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateUsersBatch(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/users/batch", `{"users":[
		{"name":"User 1","age":25,"email":"user1@example.com"},
		{"name":"User 2","age":30,"email":"user2@example.com"}
	]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	users := decode[[]model.User](t, rec)
	require.Len(t, users, 2)
	assert.Equal(t, "user1@example.com", users[0].Email)
	assert.Equal(t, "user2@example.com", users[1].Email)

	t.Run("empty batch", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/users/batch", `{"users":[]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, decode[[]model.User](t, rec))
	})

	t.Run("invalid element", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/users/batch", `{"users":[
			{"name":"User 3","age":25,"email":"user3@example.com"},
			{"name":"User 4","age":25,"email":"nope"}
		]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode[errs.HTTPError](t, rec)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "users[1].email", body.Errors[0].Field)
	})
}

func TestListUsers(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	api.do(http.MethodPost, "/api/v1/users", `{"name":"User 1","age":25,"email":"user1@example.com"}`)
	api.do(http.MethodPost, "/api/v1/users", `{"name":"User 2","age":30,"email":"user2@example.com"}`)

	users := decode[[]model.User](t, api.do(http.MethodGet, "/api/v1/users", ""))
	require.Len(t, users, 2)
	assert.Less(t, users[0].ID, users[1].ID)
}

func TestGetUser(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/v1/users", testUser)

	rec := api.do(http.MethodGet, "/api/v1/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test User", decode[model.User](t, rec).Name)

	rec = api.do(http.MethodGet, "/api/v1/users/by-email/test@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[model.User](t, rec).ID)

	rec = api.do(http.MethodGet, "/api/v1/users/99999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decode[errs.HTTPError](t, rec).Code)

	rec = api.do(http.MethodGet, "/api/v1/users/by-email/nonexistent@example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/users/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/users/0", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/users/-3", "").Code)
}

func TestUpdateUser(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/v1/users", testUser)

	rec := api.do(http.MethodPatch, "/api/v1/users/1", `{"name":"Updated Name"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.User{ID: 1, Name: "Updated Name", Age: 25, Email: "test@example.com"}, decode[model.User](t, rec))

	t.Run("id in body is ignored", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/api/v1/users/1", `{"id":42,"age":26}`)
		require.Equal(t, http.StatusOK, rec.Code)

		user := decode[model.User](t, rec)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, 26, user.Age)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/api/v1/users/1", `{"email":"a@b"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing user", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/api/v1/users/99999", `{"name":"Ghost"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		users := decode[[]model.User](t, api.do(http.MethodGet, "/api/v1/users", ""))
		assert.Len(t, users, 1)
	})
}

func TestDeleteAndExists(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/v1/users", testUser)

	assert.Equal(t, http.StatusOK, api.do(http.MethodHead, "/api/v1/users/1", "").Code)

	rec := api.do(http.MethodDelete, "/api/v1/users/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/v1/users/1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodHead, "/api/v1/users/1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/users/1", "").Code)
}

func TestNonPositiveIDs(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/v1/users", testUser)

	for _, id := range []string{"0", "-1"} {
		path := "/api/v1/users/" + id

		rec := api.do(http.MethodDelete, path, "")
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Empty(t, rec.Body.String())

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodHead, path, "").Code, path)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, path, `{"name":"Ghost"}`).Code, path)
	}

	users := decode[[]model.User](t, api.do(http.MethodGet, "/api/v1/users", ""))
	assert.Len(t, users, 1)
}

func TestStoreFailure(t *testing.T) {
	api := newTestAPI(t)
	api.store.Err = errors.New("connection reset by peer")

	rec := api.do(http.MethodGet, "/api/v1/users", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode[errs.HTTPError](t, rec)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode[errs.HTTPError](t, rec).Message)
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/users", "")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])

	api.pingErr = errors.New("dial tcp: connection refused")
	rec = api.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, rec)["status"])
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = 1
		cfg.Server.RateLimitBurst = 1
	})

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/users", "").Code)

	rec := api.do(http.MethodGet, "/api/v1/users", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decode[errs.HTTPError](t, rec).Code)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/status", "").Code, "system routes are not limited")
}

func TestRoutesWithNewRelic(t *testing.T) {
	loggerService, err := loggerPkg.NewLoggerService(config.ObservabilityConfig{
		ServiceName: "userstore",
		NewRelic:    config.NewRelicConfig{LicenseKey: strings.Repeat("a", 40)},
	}, "test", newrelic.ConfigEnabled(false))
	require.NoError(t, err)
	t.Cleanup(loggerService.Shutdown)

	api := newTestAPIWithService(t, loggerService, func(cfg *config.Config) {
		cfg.Server.RateLimit = 1
		cfg.Server.RateLimitBurst = 2
	})

	rec := api.do(http.MethodPost, "/api/v1/users", testUser)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Test User", decode[model.User](t, rec).Name)

	rec = api.do(http.MethodGet, "/api/v1/users/99999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decode[errs.HTTPError](t, rec).Code)

	assert.Equal(t, http.StatusTooManyRequests, api.do(http.MethodGet, "/api/v1/users", "").Code)

	api.pingErr = errors.New("database is down")
	assert.Equal(t, http.StatusServiceUnavailable, api.do(http.MethodGet, "/status", "").Code)
}
