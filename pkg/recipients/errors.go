package recipients

import (
	"errors"
	"fmt"
)

var (
	// ErrOpenFailed indicates the input file could not be opened or parsed.
	ErrOpenFailed = errors.New("recipients: failed to open input file")

	// ErrUnsupportedFormat indicates the file extension is not a known tabular format.
	ErrUnsupportedFormat = errors.New("recipients: unsupported file format")

	// ErrNoHeader indicates the file contains no header row.
	ErrNoHeader = errors.New("recipients: header row not found")

	// ErrMissingColumn indicates a required column is absent from the header.
	ErrMissingColumn = errors.New("recipients: missing required column")

	// ErrSheetNotFound indicates the requested worksheet does not exist.
	ErrSheetNotFound = errors.New("recipients: sheet not found")
)

// LoadError is returned by Load for every structural problem with the input.
// It is fatal for a campaign: no message is sent when loading fails.
type LoadError struct {
	Path   string
	Column string // set for ErrMissingColumn
	Err    error
}

func (e *LoadError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %q in %s", e.Err, e.Column, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Path)
}

func (e *LoadError) Unwrap() error { return e.Err }
