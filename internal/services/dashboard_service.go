// Package services holds the business layer between HTTP transport and the
// dataset/views packages: source selection, upload handling, and the derived
// view operations the dashboard exposes.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"revboard/internal/dataset"
	"revboard/internal/infrastructure"
	"revboard/internal/views"
)

// Broadcaster pushes dataset lifecycle events to connected clients. The
// websocket hub implements it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastDatasetReloaded(source string, records int)
}

// activeSource identifies which input the dashboard is currently serving:
// the configured file on disk, or the bytes of the last accepted upload.
type activeSource struct {
	kind     string // "file" or "upload"
	path     string // kind == "file"
	filename string // kind == "upload"
	data     []byte // kind == "upload"
}

// DashboardService serves every dashboard view from the active dataset
// source. Reads recompute views on each call; the loader's memoization makes
// repeat loads of the same source cheap.
type DashboardService struct {
	loader  *dataset.Loader
	hub     Broadcaster
	metrics *infrastructure.Metrics
	logger  *slog.Logger

	mu     sync.RWMutex
	source activeSource
}

// NewDashboardService creates the service with the configured dataset file
// as the initial source. hub and metrics may be nil.
func NewDashboardService(loader *dataset.Loader, datasetFile string, hub Broadcaster, metrics *infrastructure.Metrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &DashboardService{
		loader:  loader,
		hub:     hub,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "dashboard.service")),
		source:  activeSource{kind: "file", path: datasetFile},
	}
}

// current resolves the active source into a Dataset.
func (s *DashboardService) current(ctx context.Context) (*dataset.Dataset, error) {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()

	if src.kind == "upload" {
		return s.loader.LoadBytes(ctx, src.filename, src.data)
	}
	return s.loader.LoadFile(ctx, src.path)
}

// Preview returns the first n records of the active dataset.
func (s *DashboardService) Preview(ctx context.Context, n int) ([]dataset.CompanyRecord, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordView(ctx, "preview")
	return views.Preview(ds, n), nil
}

// Summary returns describe-style statistics for the numeric columns.
func (s *DashboardService) Summary(ctx context.Context) (views.Summary, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return views.Summary{}, err
	}
	s.metrics.RecordView(ctx, "summary")
	return views.Summarize(ds), nil
}

// Industries returns the distinct industries in first-appearance order.
func (s *DashboardService) Industries(ctx context.Context) ([]string, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordView(ctx, "industries")
	return views.Industries(ds), nil
}

// Filter returns the records whose industry is in the allowed set, then the
// positional top n of the full dataset for side-by-side display. An empty
// allowed set yields an empty filtered slice.
func (s *DashboardService) Filter(ctx context.Context, industries []string, topN int) ([]dataset.CompanyRecord, []dataset.CompanyRecord, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordView(ctx, "filter")
	return views.FilterByIndustry(ds, industries), views.Top(ds, topN), nil
}

// Locations returns the most common headquarters locations.
func (s *DashboardService) Locations(ctx context.Context, topK int) ([]views.LocationCount, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordView(ctx, "locations")
	return views.LocationFrequency(ds, topK), nil
}

// Scatter builds the revenue-vs-growth scatter chart spec.
func (s *DashboardService) Scatter(ctx context.Context, dims views.Dimensions) (views.ScatterChart, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return views.ScatterChart{}, err
	}
	s.metrics.RecordView(ctx, "chart_scatter")
	return views.ScatterRevenueGrowth(ds, dims)
}

// Bar builds the revenue-by-industry bar chart spec.
func (s *DashboardService) Bar(ctx context.Context, dims views.Dimensions) (views.BarChart, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return views.BarChart{}, err
	}
	s.metrics.RecordView(ctx, "chart_bar")
	return views.BarRevenueByIndustry(ds, dims)
}

// Pie builds the headquarters distribution pie chart spec.
func (s *DashboardService) Pie(ctx context.Context, dims views.Dimensions) (views.PieChart, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return views.PieChart{}, err
	}
	s.metrics.RecordView(ctx, "chart_pie")
	return views.PieHeadquarters(ds, dims)
}

// Upload validates and parses an uploaded table; on success it becomes the
// active source and connected clients are told to refetch. A failed parse
// leaves the previous source in place.
func (s *DashboardService) Upload(ctx context.Context, filename string, data []byte) (*dataset.Dataset, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}

	ds, err := s.loader.LoadBytes(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.source = activeSource{kind: "upload", filename: filename, data: data}
	s.mu.Unlock()

	s.metrics.RecordUpload(ctx)
	s.logger.InfoContext(ctx, "upload accepted",
		slog.String("filename", filename),
		slog.Int("records", ds.Len()))

	if s.hub != nil {
		s.hub.BroadcastDatasetReloaded(filename, ds.Len())
	}
	return ds, nil
}

// Status describes the active source without forcing a load.
type Status struct {
	SourceKind    string `json:"source_kind"`
	Source        string `json:"source"`
	CachedSources int    `json:"cached_sources"`
}

// Status reports which source is active and how many sources are memoized.
func (s *DashboardService) Status() Status {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()

	name := src.path
	if src.kind == "upload" {
		name = src.filename
	}
	return Status{
		SourceKind:    src.kind,
		Source:        name,
		CachedSources: s.loader.CachedCount(),
	}
}
