package report

import "errors"

var (
	// ErrUnsupportedFormat indicates the report path has an unknown extension.
	ErrUnsupportedFormat = errors.New("report: unsupported format, use .xlsx or .csv")

	// ErrWriteFailed indicates the report could not be written.
	ErrWriteFailed = errors.New("report: write failed")
)
