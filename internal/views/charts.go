package views

import (
	"github.com/go-playground/validator/v10"

	"revboard/internal/dataset"
)

var validate = validator.New()

// Dimensions are the caller-chosen chart size in inches. Width is bounded to
// [4,12] and height to [3,8]; values outside the range are rejected, not
// clamped.
type Dimensions struct {
	Width  int `json:"width" validate:"min=4,max=12"`
	Height int `json:"height" validate:"min=3,max=8"`
}

// Validate checks the dimension bounds.
func (d Dimensions) Validate() error {
	return validate.Struct(d)
}

// DefaultDimensions is the 8x5 size the scatter and bar charts start with.
func DefaultDimensions() Dimensions {
	return Dimensions{Width: 8, Height: 5}
}

// DefaultPieDimensions is the pie chart default. Only the width differs, by
// configuration rather than rule.
func DefaultPieDimensions() Dimensions {
	return Dimensions{Width: 6, Height: 5}
}

// ScatterPoint is one company on the revenue-vs-growth plot.
type ScatterPoint struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ScatterChart plots revenue against growth for the top-10 subset, one
// color-grouped point per company.
type ScatterChart struct {
	Title      string         `json:"title"`
	XLabel     string         `json:"x_label"`
	YLabel     string         `json:"y_label"`
	Dimensions Dimensions     `json:"dimensions"`
	Points     []ScatterPoint `json:"points"`
}

// Bar is one bar of a bar chart.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BarChart shows mean revenue per industry over the top-10 subset.
type BarChart struct {
	Title      string     `json:"title"`
	XLabel     string     `json:"x_label"`
	YLabel     string     `json:"y_label"`
	Dimensions Dimensions `json:"dimensions"`
	Bars       []Bar      `json:"bars"`
}

// PieSlice is one slice of the headquarters pie.
type PieSlice struct {
	Label   string  `json:"label"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
}

// PieChart shows the share of the top-5 headquarters locations.
type PieChart struct {
	Title      string     `json:"title"`
	Dimensions Dimensions `json:"dimensions"`
	Slices     []PieSlice `json:"slices"`
}

// ScatterRevenueGrowth builds the revenue-vs-growth scatter spec over the
// positional top 10, labelled by the resolved company-name column.
func ScatterRevenueGrowth(ds *dataset.Dataset, dims Dimensions) (ScatterChart, error) {
	if err := dims.Validate(); err != nil {
		return ScatterChart{}, err
	}

	top := Top(ds, 10)
	points := make([]ScatterPoint, 0, len(top))
	for _, r := range top {
		points = append(points, ScatterPoint{
			Label: r.Name,
			X:     r.Growth,
			Y:     float64(r.Revenue),
		})
	}

	return ScatterChart{
		Title:      "Top 10 Companies: Revenue vs Growth",
		XLabel:     "Revenue Growth (%)",
		YLabel:     "Revenue (USD millions)",
		Dimensions: dims,
		Points:     points,
	}, nil
}

// BarRevenueByIndustry builds the revenue-by-industry bar spec over the
// positional top 10. Industries appearing more than once are aggregated to
// their mean revenue, in first-appearance order.
func BarRevenueByIndustry(ds *dataset.Dataset, dims Dimensions) (BarChart, error) {
	if err := dims.Validate(); err != nil {
		return BarChart{}, err
	}

	top := Top(ds, 10)
	sums := make(map[string]float64)
	counts := make(map[string]int)
	order := []string{}
	for _, r := range top {
		if _, ok := counts[r.Industry]; !ok {
			order = append(order, r.Industry)
		}
		sums[r.Industry] += float64(r.Revenue)
		counts[r.Industry]++
	}

	bars := make([]Bar, 0, len(order))
	for _, industry := range order {
		bars = append(bars, Bar{
			Label: industry,
			Value: sums[industry] / float64(counts[industry]),
		})
	}

	return BarChart{
		Title:      "Top 10 Companies - Revenue by Industry",
		XLabel:     "Industry",
		YLabel:     "Revenue (USD millions)",
		Dimensions: dims,
		Bars:       bars,
	}, nil
}

// PieHeadquarters builds the top-5 headquarters distribution spec. Slice
// percentages are shares of the plotted total, not of the whole dataset.
func PieHeadquarters(ds *dataset.Dataset, dims Dimensions) (PieChart, error) {
	if err := dims.Validate(); err != nil {
		return PieChart{}, err
	}

	freq := LocationFrequency(ds, 5)
	var total int
	for _, f := range freq {
		total += f.Count
	}

	slices := make([]PieSlice, 0, len(freq))
	for _, f := range freq {
		pct := 0.0
		if total > 0 {
			pct = float64(f.Count) / float64(total) * 100
		}
		slices = append(slices, PieSlice{Label: f.Location, Value: f.Count, Percent: pct})
	}

	return PieChart{
		Title:      "Top 5 Headquarters Locations",
		Dimensions: dims,
		Slices:     slices,
	}, nil
}
