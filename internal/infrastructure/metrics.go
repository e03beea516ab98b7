package infrastructure

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the dashboard's business metrics. All methods are nil-safe
// so components can run without a meter in tests.
type Metrics struct {
	datasetLoads metric.Int64Counter
	cacheHits    metric.Int64Counter
	viewRequests metric.Int64Counter
	uploads      metric.Int64Counter
}

// NewMetrics registers the business metrics on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	datasetLoads, err := meter.Int64Counter(
		"dataset_loads_total",
		metric.WithDescription("Total number of dataset load requests, cached or parsed"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"dataset_cache_hits_total",
		metric.WithDescription("Dataset loads served from the memoization cache"),
	)
	if err != nil {
		return nil, err
	}

	viewRequests, err := meter.Int64Counter(
		"derived_view_requests_total",
		metric.WithDescription("Derived view computations by view name"),
	)
	if err != nil {
		return nil, err
	}

	uploads, err := meter.Int64Counter(
		"dataset_uploads_total",
		metric.WithDescription("Accepted dataset uploads"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		datasetLoads: datasetLoads,
		cacheHits:    cacheHits,
		viewRequests: viewRequests,
		uploads:      uploads,
	}, nil
}

// ObserveLoad implements the dataset loader's observer hook.
func (m *Metrics) ObserveLoad(ctx context.Context, sourceKey string, cacheHit bool, records int) {
	if m == nil {
		return
	}
	m.datasetLoads.Add(ctx, 1)
	if cacheHit {
		m.cacheHits.Add(ctx, 1)
	}
}

// RecordView counts one derived-view computation.
func (m *Metrics) RecordView(ctx context.Context, view string) {
	if m == nil {
		return
	}
	m.viewRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("view", view)))
}

// RecordUpload counts one accepted upload.
func (m *Metrics) RecordUpload(ctx context.Context) {
	if m == nil {
		return
	}
	m.uploads.Add(ctx, 1)
}
