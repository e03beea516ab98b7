package http

import (
	"context"

	"revboard/internal/dataset"
	"revboard/internal/services"
	"revboard/internal/views"
)

// DashboardService is the business surface the dashboard handler needs.
type DashboardService interface {
	Preview(ctx context.Context, n int) ([]dataset.CompanyRecord, error)
	Summary(ctx context.Context) (views.Summary, error)
	Industries(ctx context.Context) ([]string, error)
	Filter(ctx context.Context, industries []string, topN int) ([]dataset.CompanyRecord, []dataset.CompanyRecord, error)
	Locations(ctx context.Context, topK int) ([]views.LocationCount, error)
	Scatter(ctx context.Context, dims views.Dimensions) (views.ScatterChart, error)
	Bar(ctx context.Context, dims views.Dimensions) (views.BarChart, error)
	Pie(ctx context.Context, dims views.Dimensions) (views.PieChart, error)
	Upload(ctx context.Context, filename string, data []byte) (*dataset.Dataset, error)
	Status() services.Status
}

// HealthService is the surface the health handler needs.
type HealthService interface {
	Check(ctx context.Context) services.HealthStatus
	Ready(ctx context.Context) error
	Version() string
}
