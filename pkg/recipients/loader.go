package recipients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
)

// Options configures how the input file is read.
type Options struct {
	// Sheet selects the worksheet of a workbook. Empty means the first sheet.
	Sheet string
}

// Load reads the file at path into send jobs using default options.
func Load(path string) ([]SendJob, error) {
	return LoadWithOptions(path, Options{})
}

// LoadWithOptions reads the file at path into send jobs in row order.
// All failures are returned as *LoadError.
func LoadWithOptions(path string, opts Options) ([]SendJob, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path, opts.Sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, &LoadError{Path: path, Err: ErrUnsupportedFormat}
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return parseRows(path, rows)
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are padded later

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Join(ErrOpenFailed, err)
		}
		rows = append(rows, rec)
	}

	// Excel exports often start with a UTF-8 BOM.
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// parseRows maps raw cells to jobs. The first non-empty row is the header.
func parseRows(path string, rows [][]string) ([]SendJob, error) {
	headerIdx := slices.IndexFunc(rows, func(r []string) bool { return !isBlank(r) })
	if headerIdx == -1 {
		return nil, &LoadError{Path: path, Err: ErrNoHeader}
	}

	index, err := columnIndex(rows[headerIdx])
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}

	jobs := make([]SendJob, 0, len(rows)-headerIdx-1)
	for _, r := range rows[headerIdx+1:] {
		if isBlank(r) {
			continue
		}
		cell := func(col string) string {
			i := index[col]
			if i >= len(r) {
				return ""
			}
			return strings.TrimSpace(r[i])
		}
		jobs = append(jobs, SendJob{
			Row:        len(jobs) + 1,
			FromEmail:  cell(ColFromEmail),
			Password:   cell(ColPassword),
			Salutation: cell(ColSal),
			Signature:  cell(ColSignature),
			ToEmail:    cell(ColToEmail),
			Subject:    cell(ColSubject),
			HTMLFile:   cell(ColHTMLFile),
		})
	}
	return jobs, nil
}

// columnIndex resolves every required column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	fold := cases.Fold()
	seen := make(map[string]int, len(header))
	for i, name := range header {
		key := fold.String(strings.TrimSpace(name))
		if _, dup := seen[key]; !dup {
			seen[key] = i
		}
	}

	index := make(map[string]int, len(Columns))
	for _, col := range Columns {
		i, ok := seen[fold.String(col)]
		if !ok {
			return nil, &LoadError{Column: col, Err: ErrMissingColumn}
		}
		index[col] = i
	}
	return index, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
