package services

import "errors"

// Service-level sentinel errors. Transport maps these onto problem
// responses; callers inside the module match them with errors.Is.
var (
	// ErrUnsupportedFileType is returned when an upload is neither CSV nor XLSX.
	ErrUnsupportedFileType = errors.New("unsupported file type: expected .csv or .xlsx")

	// ErrEmptyUpload is returned when an uploaded file has no content.
	ErrEmptyUpload = errors.New("uploaded file is empty")
)
