package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ASTROTRACKER_BACK-END/internal/cache"
	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/middleware"
	"ASTROTRACKER_BACK-END/internal/services"
	"ASTROTRACKER_BACK-END/internal/testutil/fakes"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type testEnv struct {
	cfg      *config.Config
	users    *fakes.UserRepository
	apods    *fakes.ApodRepository
	fetcher  *fakes.Fetcher
	calendar *fakes.Calendar
	mailer   *fakes.Mailer

	auth *AuthHandler
	fp   *ForgotPasswordHandler
	apod *ApodHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.JWT.Secret = "handler-test-secret-0123456789abcdef"
	cfg.Email.FrontendURL = "http://localhost:3000"

	env := &testEnv{
		cfg:      cfg,
		users:    fakes.NewUserRepository(),
		apods:    fakes.NewApodRepository(),
		fetcher:  fakes.NewFetcher(),
		calendar: &fakes.Calendar{},
		mailer:   &fakes.Mailer{},
	}

	mem := cache.NewMemory(0)
	t.Cleanup(mem.Close)

	authSvc := services.NewAuthService(env.users, env.mailer, cfg, discard)
	apodSvc := services.NewApodService(env.apods, env.fetcher, env.calendar, mem, cfg.Cache, discard)

	env.auth = NewAuthHandler(authSvc, discard)
	env.fp = NewForgotPasswordHandler(authSvc, discard)
	env.apod = NewApodHandler(apodSvc, discard)
	return env
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// asUser attaches an authenticated user id the way AuthMiddleware does
func asUser(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), id, &middleware.JWTClaims{}))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
