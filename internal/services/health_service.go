package services

import (
	"context"
	"time"
)

// HealthStatus is the liveness/readiness payload.
type HealthStatus struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	DatasetLoaded bool      `json:"dataset_loaded"`
}

// HealthService reports process health. Readiness additionally checks that
// the active dataset source can be loaded.
type HealthService struct {
	dashboard *DashboardService
	version   string
	started   time.Time
}

// NewHealthService creates a health service bound to the dashboard service.
func NewHealthService(dashboard *DashboardService, version string) *HealthService {
	return &HealthService{
		dashboard: dashboard,
		version:   version,
		started:   time.Now(),
	}
}

// Check returns liveness information. It never fails: a process that can
// answer is alive.
func (h *HealthService) Check(ctx context.Context) HealthStatus {
	loaded := false
	if _, err := h.dashboard.current(ctx); err == nil {
		loaded = true
	}
	return HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: time.Since(h.started).Seconds(),
		DatasetLoaded: loaded,
	}
}

// Ready returns nil when the active dataset source loads cleanly.
func (h *HealthService) Ready(ctx context.Context) error {
	_, err := h.dashboard.current(ctx)
	return err
}

// Version returns the build version string.
func (h *HealthService) Version() string {
	return h.version
}
