package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
)

// Observer receives load events for metrics. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveLoad(ctx context.Context, sourceKey string, cacheHit bool, records int)
}

// Loader parses CSV or XLSX input into Datasets and memoizes the result by
// source identity for the lifetime of the process. Files are keyed by
// absolute path, uploads by a digest of their content, so re-uploading
// different content under the same filename yields a fresh parse. There is
// no eviction: inputs are small and session-scoped.
type Loader struct {
	logger   *slog.Logger
	observer Observer

	mu    sync.RWMutex
	cache map[string]*Dataset
	group singleflight.Group
}

// NewLoader creates a loader. The observer may be nil.
func NewLoader(logger *slog.Logger, observer Observer) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger.With(slog.String("component", "dataset.loader")),
		observer: observer,
		cache:    make(map[string]*Dataset),
	}
}

// LoadFile loads and normalizes the table at path, memoized by absolute path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", path, err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return nil, &MissingInputError{Path: path}
	}

	return l.load(ctx, "file:"+abs, func() ([][]string, error) {
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", abs, err)
		}
		return parseRows(abs, data)
	})
}

// LoadBytes loads and normalizes an uploaded document, memoized by a SHA-256
// digest of its content. The filename only selects the parser (.xlsx is read
// through excelize, everything else as CSV).
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*Dataset, error) {
	if len(data) == 0 {
		return nil, &MissingInputError{}
	}
	key := fmt.Sprintf("upload:%x", sha256.Sum256(data))

	return l.load(ctx, key, func() ([][]string, error) {
		return parseRows(filename, data)
	})
}

// CachedCount returns the number of memoized datasets.
func (l *Loader) CachedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

// load returns the cached Dataset for key, or parses and builds it exactly
// once even under concurrent callers. Failed loads cache nothing.
func (l *Loader) load(ctx context.Context, key string, parse func() ([][]string, error)) (*Dataset, error) {
	ds, hit, err := l.parseAndCache(ctx, key, parse)
	if err != nil {
		l.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("source", key),
			slog.String("error", err.Error()))
		return nil, err
	}

	if l.observer != nil {
		l.observer.ObserveLoad(ctx, key, hit, ds.Len())
	}
	return ds, nil
}

// parseAndCache resolves key from the cache or parses it under singleflight.
// The hit flag is true when the Dataset came from the cache, whether on the
// fast path or on the re-check inside the flight.
func (l *Loader) parseAndCache(ctx context.Context, key string, parse func() ([][]string, error)) (*Dataset, bool, error) {
	l.mu.RLock()
	ds, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return ds, true, nil
	}

	// hit is written only by the one closure singleflight executes, before
	// Do returns to this caller.
	hit := false
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have populated the cache while this
		// call was queued.
		l.mu.RLock()
		ds, ok := l.cache[key]
		l.mu.RUnlock()
		if ok {
			hit = true
			return ds, nil
		}

		rows, err := parse()
		if err != nil {
			return nil, err
		}
		ds, err = build(rows, key)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.cache[key] = ds
		l.mu.Unlock()

		l.logger.InfoContext(ctx, "dataset loaded",
			slog.String("source", key),
			slog.Int("records", ds.Len()),
			slog.String("name_column", ds.NameColumn()))
		return ds, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Dataset), hit, nil
}

// parseRows turns raw bytes into a rectangular row set. XLSX input is read
// from its first sheet; anything else is treated as UTF-8 CSV.
func parseRows(filename string, data []byte) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return parseXLSX(data)
	}
	return parseCSV(bytes.NewReader(data))
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// Ragged rows and bare quotes are malformed input, not
			// server faults.
			return nil, &FormatError{Row: parseErr.Line, Err: parseErr.Err}
		}
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// build validates the header against the expected schema and normalizes the
// two numeric columns. Any failure aborts the whole table.
func build(rows [][]string, key string) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, &SchemaError{Reason: "input is empty"}
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, col := range []string{ColRevenue, ColGrowth, ColIndustry, ColHeadquarters} {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	nameCol, nameIdx, ok := resolveNameColumn(header, index)
	if !ok {
		return nil, &SchemaError{Reason: "no company name column found (expected a header containing \"name\" or \"company\")"}
	}

	records := make([]CompanyRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header

		revText, err := cell(row, index[ColRevenue], ColRevenue, rowNum)
		if err != nil {
			return nil, err
		}
		revenue, perr := strconv.ParseInt(strings.ReplaceAll(revText, ",", ""), 10, 64)
		if perr != nil {
			return nil, &FormatError{Column: ColRevenue, Row: rowNum, Value: revText, Err: perr}
		}

		growText, err := cell(row, index[ColGrowth], ColGrowth, rowNum)
		if err != nil {
			return nil, err
		}
		growth, perr := strconv.ParseFloat(strings.ReplaceAll(growText, "%", ""), 64)
		if perr != nil {
			return nil, &FormatError{Column: ColGrowth, Row: rowNum, Value: growText, Err: perr}
		}

		records = append(records, CompanyRecord{
			Name:         stringAt(row, nameIdx),
			Revenue:      revenue,
			Growth:       growth,
			Industry:     stringAt(row, index[ColIndustry]),
			Headquarters: stringAt(row, index[ColHeadquarters]),
		})
	}

	return &Dataset{
		records:    records,
		columns:    header,
		nameColumn: nameCol,
		sourceKey:  key,
	}, nil
}

// resolveNameColumn picks the first header whose lowercased text contains
// "name" or "company". It is the display and grouping key for every view
// that labels companies.
func resolveNameColumn(header []string, index map[string]int) (string, int, bool) {
	for _, h := range header {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "name") || strings.Contains(lower, "company") {
			return h, index[h], true
		}
	}
	return "", 0, false
}

// cell returns the trimmed value at idx or a FormatError when the row is too
// short to carry the column at all.
func cell(row []string, idx int, col string, rowNum int) (string, error) {
	if idx >= len(row) {
		return "", &FormatError{Column: col, Row: rowNum, Value: ""}
	}
	return strings.TrimSpace(row[idx]), nil
}

func stringAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
