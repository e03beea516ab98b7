package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "revboard/internal/errors"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	service      HealthService
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewHealthHandler creates the handler.
func NewHealthHandler(service HealthService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "health.handler")),
	}
}

// Routes mounts the health endpoints.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/live", h.Check)
	r.Get("/ready", h.Ready)
	return r
}

// Check handles GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Check(r.Context()))
}

// Ready handles GET /api/health/ready. It answers 503 until the active
// dataset source loads cleanly.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "readiness check failed",
			slog.String("error", err.Error()))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	render.JSON(w, r, map[string]interface{}{"status": "ready"})
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"version": h.service.Version()})
}
