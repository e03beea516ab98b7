package dataset

import (
	"fmt"
	"strings"
)

// FormatError reports malformed tabular input: a numeric column that failed
// normalization, or a row the CSV reader could not parse at all. A single bad
// cell or row fails the whole load; no partial dataset is produced.
type FormatError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

// Error implements the error interface
func (e *FormatError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: malformed record: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("column %q row %d: cannot parse %q as a number", e.Column, e.Row, e.Value)
}

// Unwrap allows errors.Is and errors.As to reach the parse error
func (e *FormatError) Unwrap() error {
	return e.Err
}

// SchemaError reports that the header row does not match the expected schema.
type SchemaError struct {
	Missing []string
	Reason  string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema mismatch: missing columns %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("schema mismatch: %s", e.Reason)
}

// MissingInputError reports that no input source is available: no upload was
// provided and the default file does not exist.
type MissingInputError struct {
	Path string
}

// Error implements the error interface
func (e *MissingInputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("no dataset loaded: upload a file or place one at %s", e.Path)
	}
	return "no dataset loaded: upload a file to begin"
}
