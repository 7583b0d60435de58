package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dmitrymomot/mailmerge/pkg/recipients"
	"github.com/dmitrymomot/mailmerge/pkg/runner"
)

const (
	// DefaultPath is the report file name used when none is configured.
	DefaultPath = "failed_emails_report.xlsx"

	// SheetName is the worksheet name of .xlsx reports.
	SheetName = "Failed"

	// ColErrorMessage holds the failure reason of each row.
	ColErrorMessage = "error_message"
)

// Header returns the report column names.
func Header() []string {
	return append(append([]string(nil), recipients.Columns...), ColErrorMessage)
}

type options struct {
	includeCredentials bool
}

// Option configures Write.
type Option func(*options)

// WithCredentials writes the sender password column instead of leaving it blank.
func WithCredentials() Option {
	return func(o *options) {
		o.includeCredentials = true
	}
}

// Write stores failures at path. It reports whether a file was written:
// an empty failure list writes nothing and returns false, nil.
//
// Row values are copied from each failed SendJob, except that the password
// cell is left empty unless WithCredentials is given. The column stays so
// the report can be loaded back as campaign input.
func Write(path string, failures []runner.JobResult, opts ...Option) (bool, error) {
	if len(failures) == 0 {
		return false, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rows := make([][]string, 0, len(failures)+1)
	rows = append(rows, Header())
	for _, res := range failures {
		rows = append(rows, row(res, o.includeCredentials))
	}

	var write func(string, [][]string) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		write = writeXLSX
	case ".csv":
		write = writeCSV
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, errors.Join(ErrWriteFailed, err)
		}
	}
	if err := write(path, rows); err != nil {
		return false, errors.Join(ErrWriteFailed, err)
	}
	return true, nil
}

func row(res runner.JobResult, includeCredentials bool) []string {
	values := res.Job.Values()
	if !includeCredentials {
		values[1] = ""
	}
	return append(values, res.ErrorMessage())
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(r))
		for j, v := range r {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeCSV(path string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}
