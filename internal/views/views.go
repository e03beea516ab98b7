// Package views holds the pure derived-view functions the dashboard renders:
// previews, summary statistics, industry filtering, positional top-N, location
// frequencies and the chart specifications built on top of them. Every
// function is a total, stateless projection of an immutable Dataset; the
// transport layer recomputes them on each interaction.
package views

import (
	"encoding/json"
	"math"
	"sort"

	"revboard/internal/dataset"
)

// SummaryColumn carries describe-style statistics for one numeric column.
type SummaryColumn struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// MarshalJSON renders undefined statistics as null. Zero- and one-row inputs
// produce NaN (no mean for an empty column, no sample deviation of one
// value), which encoding/json cannot express as a bare float.
func (c SummaryColumn) MarshalJSON() ([]byte, error) {
	type summaryColumnJSON struct {
		Column string   `json:"column"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		P25    *float64 `json:"p25"`
		Median *float64 `json:"median"`
		P75    *float64 `json:"p75"`
		Max    *float64 `json:"max"`
	}
	return json.Marshal(summaryColumnJSON{
		Column: c.Column,
		Count:  c.Count,
		Mean:   finiteOrNil(c.Mean),
		Std:    finiteOrNil(c.Std),
		Min:    finiteOrNil(c.Min),
		P25:    finiteOrNil(c.P25),
		Median: finiteOrNil(c.Median),
		P75:    finiteOrNil(c.P75),
		Max:    finiteOrNil(c.Max),
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Summary holds statistics for every numeric column, in schema order.
type Summary struct {
	Columns []SummaryColumn `json:"columns"`
}

// LocationCount is one (headquarters, companies) pair of a frequency view.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// Preview returns the first n records in source order. A non-positive n
// yields an empty slice.
func Preview(ds *dataset.Dataset, n int) []dataset.CompanyRecord {
	records := ds.Records()
	if n < 0 {
		n = 0
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]dataset.CompanyRecord, n)
	copy(out, records[:n])
	return out
}

// Top returns the first n records. The source is assumed pre-sorted by
// descending revenue; no re-sorting or validation happens here.
func Top(ds *dataset.Dataset, n int) []dataset.CompanyRecord {
	return Preview(ds, n)
}

// Summarize computes count, mean, sample standard deviation, min, quartiles
// and max for the revenue and growth columns.
func Summarize(ds *dataset.Dataset) Summary {
	records := ds.Records()
	revenue := make([]float64, len(records))
	growth := make([]float64, len(records))
	for i, r := range records {
		revenue[i] = float64(r.Revenue)
		growth[i] = r.Growth
	}

	return Summary{Columns: []SummaryColumn{
		summarizeColumn(dataset.ColRevenue, revenue),
		summarizeColumn(dataset.ColGrowth, growth),
	}}
}

func summarizeColumn(name string, values []float64) SummaryColumn {
	return SummaryColumn{
		Column: name,
		Count:  len(values),
		Mean:   mean(values),
		Std:    sampleStdDev(values),
		Min:    percentile(values, 0),
		P25:    percentile(values, 25),
		Median: percentile(values, 50),
		P75:    percentile(values, 75),
		Max:    percentile(values, 100),
	}
}

// FilterByIndustry retains records whose industry is in allowed. An empty
// allowed set yields an empty result; there is no implicit show-all.
func FilterByIndustry(ds *dataset.Dataset, allowed []string) []dataset.CompanyRecord {
	out := []dataset.CompanyRecord{}
	if len(allowed) == 0 {
		return out
	}
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	for _, r := range ds.Records() {
		if _, ok := set[r.Industry]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Industries returns the distinct industries in first-appearance order,
// the option list for the filter control.
func Industries(ds *dataset.Dataset) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range ds.Records() {
		if _, ok := seen[r.Industry]; ok {
			continue
		}
		seen[r.Industry] = struct{}{}
		out = append(out, r.Industry)
	}
	return out
}

// LocationFrequency groups records by headquarters, orders groups by
// descending count with ties broken by first appearance, and returns at most
// topK pairs.
func LocationFrequency(ds *dataset.Dataset, topK int) []LocationCount {
	counts := make(map[string]int)
	order := []string{}
	for _, r := range ds.Records() {
		if _, ok := counts[r.Headquarters]; !ok {
			order = append(order, r.Headquarters)
		}
		counts[r.Headquarters]++
	}

	out := make([]LocationCount, 0, len(order))
	for _, loc := range order {
		out = append(out, LocationCount{Location: loc, Count: counts[loc]})
	}
	// Stable sort over first-appearance order keeps ties in that order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	if topK < 0 {
		topK = 0
	}
	if topK < len(out) {
		out = out[:topK]
	}
	return out
}
