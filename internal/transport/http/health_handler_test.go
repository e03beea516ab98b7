package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "revboard/internal/errors"
	"revboard/internal/services"
)

type fakeHealthService struct {
	version  string
	readyErr error
}

func (f *fakeHealthService) Check(ctx context.Context) services.HealthStatus {
	return services.HealthStatus{
		Status:    "healthy",
		Version:   f.version,
		Timestamp: time.Now().UTC(),
	}
}

func (f *fakeHealthService) Ready(ctx context.Context) error {
	return f.readyErr
}

func (f *fakeHealthService) Version() string {
	return f.version
}

func newHealthTestRouter(fake *fakeHealthService) chi.Router {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	handler := NewHealthHandler(fake, apierrors.NewErrorHandler(logger, false), logger)

	r := chi.NewRouter()
	r.Mount("/api/health", handler.Routes())
	r.Get("/api/version", handler.Version)
	return r
}

func TestHealthCheck(t *testing.T) {
	router := newHealthTestRouter(&fakeHealthService{version: "1.0.0"})

	rec := doRequest(t, router, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
}

func TestHealthLive(t *testing.T) {
	router := newHealthTestRouter(&fakeHealthService{version: "1.0.0"})

	rec := doRequest(t, router, http.MethodGet, "/api/health/live", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestHealthReady(t *testing.T) {
	router := newHealthTestRouter(&fakeHealthService{version: "1.0.0"})

	rec := doRequest(t, router, http.MethodGet, "/api/health/ready", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestHealthReadyUnavailable(t *testing.T) {
	fake := &fakeHealthService{version: "1.0.0", readyErr: errors.New("dataset file missing")}
	router := newHealthTestRouter(fake)

	rec := doRequest(t, router, http.MethodGet, "/api/health/ready", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "not_ready", body["status"])
	assert.Contains(t, body["error"], "dataset file missing")
}

func TestVersionEndpoint(t *testing.T) {
	router := newHealthTestRouter(&fakeHealthService{version: "1.0.0"})

	rec := doRequest(t, router, http.MethodGet, "/api/version", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.0.0", decodeBody(t, rec)["version"])
}
