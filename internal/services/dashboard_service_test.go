package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revboard/internal/dataset"
	"revboard/internal/views"
)

const sampleCSV = `Name,Revenue (USD millions),Revenue growth,Industry,Headquarters
Acme,"1,000,000",5.0%,Retail,New York
Globex,"500,000",-2.5%,Energy,London
Initech,"400,000",1.0%,Retail,New York
Umbrella,"300,000",8.0%,Healthcare,London
Hooli,"200,000",3.0%,Technology,San Francisco
`

type recordingBroadcaster struct {
	mu      sync.Mutex
	sources []string
	records []int
}

func (b *recordingBroadcaster) BroadcastDatasetReloaded(source string, records int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	b.records = append(b.records, records)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T) (*DashboardService, *recordingBroadcaster) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	hub := &recordingBroadcaster{}
	loader := dataset.NewLoader(testLogger(), nil)
	svc := NewDashboardService(loader, path, hub, nil, testLogger())
	return svc, hub
}

func TestPreviewFromFileSource(t *testing.T) {
	svc, _ := newTestService(t)

	records, err := svc.Preview(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Acme", records[0].Name)
	assert.Equal(t, int64(1000000), records[0].Revenue)
}

func TestPreviewMissingFile(t *testing.T) {
	loader := dataset.NewLoader(testLogger(), nil)
	svc := NewDashboardService(loader, filepath.Join(t.TempDir(), "absent.csv"), nil, nil, testLogger())

	_, err := svc.Preview(context.Background(), 10)
	var missing *dataset.MissingInputError
	assert.ErrorAs(t, err, &missing)
}

func TestSummary(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Columns, 2)
	assert.Equal(t, 5, summary.Columns[0].Count)
	assert.Equal(t, 480000.0, summary.Columns[0].Mean)
}

func TestFilterReturnsBothViews(t *testing.T) {
	svc, _ := newTestService(t)

	filtered, top, err := svc.Filter(context.Background(), []string{"Retail"}, 2)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "Acme", filtered[0].Name)
	assert.Equal(t, "Initech", filtered[1].Name)
	require.Len(t, top, 2)
	assert.Equal(t, "Globex", top[1].Name)
}

func TestFilterEmptySelection(t *testing.T) {
	svc, _ := newTestService(t)

	filtered, _, err := svc.Filter(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestChartsFromService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	scatter, err := svc.Scatter(ctx, views.DefaultDimensions())
	require.NoError(t, err)
	assert.Len(t, scatter.Points, 5)

	bar, err := svc.Bar(ctx, views.DefaultDimensions())
	require.NoError(t, err)
	assert.Len(t, bar.Bars, 4)

	pie, err := svc.Pie(ctx, views.DefaultPieDimensions())
	require.NoError(t, err)
	assert.Len(t, pie.Slices, 3)
}

func TestUploadSwitchesActiveSource(t *testing.T) {
	svc, hub := newTestService(t)
	ctx := context.Background()

	uploaded := "Company,Revenue (USD millions),Revenue growth,Industry,Headquarters\n" +
		"Vandelay,\"2,000,000\",10%,Logistics,Queens\n"

	ds, err := svc.Upload(ctx, "new.csv", []byte(uploaded))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, "Company", ds.NameColumn())

	records, err := svc.Preview(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Vandelay", records[0].Name)

	require.Len(t, hub.sources, 1)
	assert.Equal(t, "new.csv", hub.sources[0])
	assert.Equal(t, 1, hub.records[0])

	status := svc.Status()
	assert.Equal(t, "upload", status.SourceKind)
	assert.Equal(t, "new.csv", status.Source)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, hub := newTestService(t)

	_, err := svc.Upload(context.Background(), "companies.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
	assert.Empty(t, hub.sources)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc, hub := newTestService(t)

	_, err := svc.Upload(context.Background(), "companies.csv", nil)
	assert.ErrorIs(t, err, ErrEmptyUpload)
	assert.Empty(t, hub.sources)
}

func TestUploadFailureKeepsPreviousSource(t *testing.T) {
	svc, hub := newTestService(t)
	ctx := context.Background()

	bad := "Name,Revenue (USD millions),Revenue growth,Industry,Headquarters\nAcme,abc,1%,Retail,NYC\n"
	_, err := svc.Upload(ctx, "bad.csv", []byte(bad))
	var formatErr *dataset.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Empty(t, hub.sources, "a failed parse must not broadcast")

	records, err := svc.Preview(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 5, "the previous source must still serve")

	status := svc.Status()
	assert.Equal(t, "file", status.SourceKind)
}

func TestHealthService(t *testing.T) {
	svc, _ := newTestService(t)
	health := NewHealthService(svc, "test")
	ctx := context.Background()

	status := health.Check(ctx)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.True(t, status.DatasetLoaded)

	assert.NoError(t, health.Ready(ctx))
}

func TestHealthServiceNotReadyWithoutDataset(t *testing.T) {
	loader := dataset.NewLoader(testLogger(), nil)
	svc := NewDashboardService(loader, filepath.Join(t.TempDir(), "absent.csv"), nil, nil, testLogger())
	health := NewHealthService(svc, "test")

	assert.Error(t, health.Ready(context.Background()))
	assert.False(t, health.Check(context.Background()).DatasetLoaded)
}
