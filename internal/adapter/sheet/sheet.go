// Package sheet reads input rows from and writes reports to xlsx and csv
// files.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cwygoda/harvest/internal/domain"
)

// Report column headers, in order.
var ReportHeader = []string{"name", "success?", "skipped", "from url", "exceptions encountered"}

var ErrUnsupportedFormat = errors.New("unsupported sheet format")

// ColumnError reports configured columns missing from the input header.
type ColumnError struct {
	Path    string
	Missing []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: missing columns %s", e.Path, strings.Join(quoteAll(e.Missing), ", "))
}

type format int

const (
	formatXLSX format = iota + 1
	formatCSV
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return formatXLSX, nil
	case ".csv":
		return formatCSV, nil
	default:
		return 0, fmt.Errorf("%s: %w (want .xlsx or .csv)", path, ErrUnsupportedFormat)
	}
}

// CheckFormat reports whether path names a sheet format Load and WriteReport
// understand, without touching the file.
func CheckFormat(path string) error {
	_, err := formatOf(path)
	return err
}

// Load reads every data row of path as a record keyed by the header row.
// It fails with a *ColumnError if nameField or any of linkFields is absent.
// Blank rows are dropped.
func Load(path, nameField string, linkFields []string) ([]domain.Record, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch f {
	case formatXLSX:
		rows, err = readXLSX(path)
	case formatCSV:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ColumnError{Path: path, Missing: append([]string{nameField}, linkFields...)}
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, col := range append([]string{nameField}, linkFields...) {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ColumnError{Path: path, Missing: missing}
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		rec := make(domain.MapRecord, len(index))
		for name, i := range index {
			if i < len(cells) {
				rec[name] = cells[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
