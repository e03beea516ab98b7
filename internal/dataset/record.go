package dataset

// Expected column headers. Header matching is exact after trimming
// surrounding whitespace; anything else is a SchemaError.
const (
	ColRevenue      = "Revenue (USD millions)"
	ColGrowth       = "Revenue growth"
	ColIndustry     = "Industry"
	ColHeadquarters = "Headquarters"
)

// CompanyRecord is one normalized row of the source table.
type CompanyRecord struct {
	Name         string  `json:"name"`
	Revenue      int64   `json:"revenue_usd_millions"`
	Growth       float64 `json:"revenue_growth_pct"`
	Industry     string  `json:"industry"`
	Headquarters string  `json:"headquarters"`
}

// Dataset is the full normalized table for one loaded source. Records keep
// the order the source gave them; the source is assumed to be pre-sorted by
// descending revenue, so positional top-N views never re-sort. Datasets are
// immutable after construction and safe for concurrent reads.
type Dataset struct {
	records    []CompanyRecord
	columns    []string
	nameColumn string
	sourceKey  string
}

// NewDataset builds a Dataset from already-normalized records. The loader is
// the usual construction path; this one serves callers that assemble records
// in memory.
func NewDataset(records []CompanyRecord, columns []string, nameColumn, sourceKey string) *Dataset {
	return &Dataset{
		records:    records,
		columns:    columns,
		nameColumn: nameColumn,
		sourceKey:  sourceKey,
	}
}

// Records returns the records in source order. The slice is shared with the
// Dataset; callers must treat it as read-only.
func (d *Dataset) Records() []CompanyRecord {
	return d.records
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// NameColumn returns the header of the column used as the company label.
// It is resolved once per load: the first column whose lowercased header
// contains "name" or "company".
func (d *Dataset) NameColumn() string {
	return d.nameColumn
}

// Columns returns the source column headers in declared order.
func (d *Dataset) Columns() []string {
	return d.columns
}

// SourceKey returns the cache identity of the input this Dataset was built
// from: the absolute path for files, a content digest for uploads.
func (d *Dataset) SourceKey() string {
	return d.sourceKey
}
