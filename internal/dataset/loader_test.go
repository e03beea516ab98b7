package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Name,Revenue (USD millions),Revenue growth,Industry,Headquarters
Acme Retail,"1,234,567",12.5%,Retail,"Bentonville, Arkansas"
Globex Energy,987654,-3.2%,Energy,"Houston, Texas"
Initech Health,"500,000",0%,Healthcare,"Minnetonka, Minnesota"
`

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewLoader(logger, nil)
}

func TestLoadBytesNormalizesColumns(t *testing.T) {
	loader := newTestLoader(t)

	ds, err := loader.LoadBytes(context.Background(), "companies.csv", []byte(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	records := ds.Records()
	assert.Equal(t, "Acme Retail", records[0].Name)
	assert.Equal(t, int64(1234567), records[0].Revenue, "comma-grouped revenue must parse as one integer")
	assert.Equal(t, 12.5, records[0].Growth, "percent suffix must be stripped")

	assert.Equal(t, int64(987654), records[1].Revenue, "ungrouped revenue must parse unchanged")
	assert.Equal(t, -3.2, records[1].Growth, "negative growth must keep its sign")

	assert.Equal(t, int64(500000), records[2].Revenue)
	assert.Equal(t, 0.0, records[2].Growth)

	assert.Equal(t, "Name", ds.NameColumn())
	assert.Equal(t, []string{"Name", "Revenue (USD millions)", "Revenue growth", "Industry", "Headquarters"}, ds.Columns())
}

func TestLoadBytesCachesByContent(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	first, err := loader.LoadBytes(ctx, "companies.csv", []byte(sampleCSV))
	require.NoError(t, err)

	second, err := loader.LoadBytes(ctx, "companies.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.Same(t, first, second, "identical content must hit the cache")
	assert.Equal(t, 1, loader.CachedCount())

	// Same filename, different content: a fresh parse.
	other := sampleCSV + `Umbrella Logistics,100,1%,Logistics,"Raccoon City"` + "\n"
	third, err := loader.LoadBytes(ctx, "companies.csv", []byte(other))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 4, third.Len())
	assert.Equal(t, 2, loader.CachedCount())
}

func TestLoadFileMissing(t *testing.T) {
	loader := newTestLoader(t)

	_, err := loader.LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 0, loader.CachedCount())
}

func TestLoadFileCachesByPath(t *testing.T) {
	loader := newTestLoader(t)
	path := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	first, err := loader.LoadFile(context.Background(), path)
	require.NoError(t, err)

	second, err := loader.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadBytesFormatErrors(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		wantCol  string
		wantRow  int
		wantText string
	}{
		{
			name: "non numeric revenue",
			csv: "Name,Revenue (USD millions),Revenue growth,Industry,Headquarters\n" +
				"Acme,abc,1%,Retail,NYC\n",
			wantCol:  ColRevenue,
			wantRow:  2,
			wantText: "abc",
		},
		{
			name: "trailing garbage in revenue",
			csv: "Name,Revenue (USD millions),Revenue growth,Industry,Headquarters\n" +
				"Acme,100,1%,Retail,NYC\n" +
				"Globex,\"1,2,3x\",2%,Energy,Houston\n",
			wantCol:  ColRevenue,
			wantRow:  3,
			wantText: "1,2,3x",
		},
		{
			name: "non numeric growth",
			csv: "Name,Revenue (USD millions),Revenue growth,Industry,Headquarters\n" +
				"Acme,100,n/a,Retail,NYC\n",
			wantCol:  ColGrowth,
			wantRow:  2,
			wantText: "n/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)

			_, err := loader.LoadBytes(context.Background(), "bad.csv", []byte(tt.csv))
			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.wantCol, formatErr.Column)
			assert.Equal(t, tt.wantRow, formatErr.Row)
			assert.Equal(t, tt.wantText, formatErr.Value)
			assert.Equal(t, 0, loader.CachedCount(), "failed loads must cache nothing")
		})
	}
}

func TestLoadBytesSchemaErrors(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	t.Run("missing columns", func(t *testing.T) {
		csv := "Name,Revenue (USD millions),Industry\nAcme,100,Retail\n"
		_, err := loader.LoadBytes(ctx, "partial.csv", []byte(csv))
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{ColGrowth, ColHeadquarters}, schemaErr.Missing)
	})

	t.Run("no name column", func(t *testing.T) {
		csv := "Ticker,Revenue (USD millions),Revenue growth,Industry,Headquarters\nACM,100,1%,Retail,NYC\n"
		_, err := loader.LoadBytes(ctx, "anon.csv", []byte(csv))
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Contains(t, schemaErr.Reason, "name")
	})

	t.Run("empty input treated as missing", func(t *testing.T) {
		_, err := loader.LoadBytes(ctx, "empty.csv", nil)
		var missing *MissingInputError
		require.ErrorAs(t, err, &missing)
	})
}

func TestResolveNameColumnPrefersFirstMatch(t *testing.T) {
	loader := newTestLoader(t)

	csv := "Rank,Company Name,Parent Company,Revenue (USD millions),Revenue growth,Industry,Headquarters\n" +
		"1,Acme,Acme Holdings,100,1%,Retail,NYC\n"
	ds, err := loader.LoadBytes(context.Background(), "ranked.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, "Company Name", ds.NameColumn())
	assert.Equal(t, "Acme", ds.Records()[0].Name)
}

func TestLoadBytesXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Name", "Revenue (USD millions)", "Revenue growth", "Industry", "Headquarters"},
		{"Acme Retail", "1,234,567", "12.5%", "Retail", "Bentonville, Arkansas"},
		{"Globex Energy", "987654", "-3.2%", "Energy", "Houston, Texas"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	loader := newTestLoader(t)
	ds, err := loader.LoadBytes(context.Background(), "companies.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, int64(1234567), ds.Records()[0].Revenue)
	assert.Equal(t, -3.2, ds.Records()[1].Growth)
}

func TestLoadConcurrentSameSource(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	const workers = 16
	results := make([]*Dataset, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := loader.LoadBytes(ctx, "companies.csv", []byte(sampleCSV))
			if err != nil {
				panic(fmt.Sprintf("load failed: %v", err))
			}
			results[i] = ds
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, loader.CachedCount())
}

type countingObserver struct {
	mu    sync.Mutex
	loads int
	hits  int
}

func (o *countingObserver) ObserveLoad(_ context.Context, _ string, cacheHit bool, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loads++
	if cacheHit {
		o.hits++
	}
}

func TestObserverSeesCacheHits(t *testing.T) {
	obs := &countingObserver{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	loader := NewLoader(logger, obs)
	ctx := context.Background()

	_, err := loader.LoadBytes(ctx, "companies.csv", []byte(sampleCSV))
	require.NoError(t, err)
	_, err = loader.LoadBytes(ctx, "companies.csv", []byte(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 2, obs.loads)
	assert.Equal(t, 1, obs.hits)
}

func TestParseAndCacheReportsHitFromFlight(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	data := []byte(sampleCSV)
	first, err := loader.LoadBytes(ctx, "companies.csv", data)
	require.NoError(t, err)

	// A caller that misses the fast path but finds the entry inside the
	// flight must still be reported as a cache hit.
	key := fmt.Sprintf("upload:%x", sha256.Sum256(data))
	ds, hit, err := loader.parseAndCache(ctx, key, func() ([][]string, error) {
		t.Fatal("cached source must not be re-parsed")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Same(t, first, ds)
	assert.True(t, hit)
}

func TestLoadBytesRaggedRow(t *testing.T) {
	loader := newTestLoader(t)

	ragged := "Name,Revenue (USD millions),Revenue growth,Industry,Headquarters\n" +
		"Acme,100,1%,Retail,NYC\n" +
		"Globex,200\n"
	_, err := loader.LoadBytes(context.Background(), "ragged.csv", []byte(ragged))

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr, "a short row is malformed input, not an internal failure")
	assert.Equal(t, 3, formatErr.Row)
	assert.Empty(t, formatErr.Column)
	assert.ErrorIs(t, err, csv.ErrFieldCount)
	assert.Equal(t, 0, loader.CachedCount())
}

func TestFormatErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &FormatError{Column: ColRevenue, Row: 3, Value: "x", Err: inner}
	assert.ErrorIs(t, err, inner)
}
