// Package seed reads the user seed file loaded at startup.
//
// Two formats are supported: CSV and XLSX (first sheet). Both need a header row
// naming the columns first_name, last_name, email and password, in any order.
// Extra columns are ignored.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Columns every seed file must provide.
var requiredColumns = []string{"first_name", "last_name", "email", "password"}

// UserRecord is one data row of the seed file. Line is 1-based and counts the header.
type UserRecord struct {
	Line      int
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Missing returns the names of required fields that are empty.
func (r UserRecord) Missing() []string {
	values := []string{r.FirstName, r.LastName, r.Email, r.Password}

	var missing []string
	for i, col := range requiredColumns {
		if values[i] == "" {
			missing = append(missing, col)
		}
	}
	return missing
}

// ReadFile opens path and dispatches on its extension: ".xlsx" is read as a
// spreadsheet, anything else as CSV.
func ReadFile(path string) ([]UserRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: opening %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(f)
	}
	return ReadCSV(f)
}

// ReadCSV parses CSV seed data. Rows may have fewer or more fields than the header.
func ReadCSV(r io.Reader) ([]UserRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("seed: reading csv: %w", err)
	}
	return fromRows(rows)
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]UserRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("seed: opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("seed: workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("seed: reading sheet %s: %w", sheet, err)
	}
	return fromRows(rows)
}

// fromRows maps raw rows to records using the header in rows[0].
func fromRows(rows [][]string) ([]UserRecord, error) {
	if len(rows) == 0 {
		return nil, errors.New("seed: file is empty")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		// Strip a UTF-8 BOM that spreadsheet exports like to prepend.
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("seed: header is missing column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]UserRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		records = append(records, UserRecord{
			Line:      i + 2,
			FirstName: cell(row, "first_name"),
			LastName:  cell(row, "last_name"),
			Email:     cell(row, "email"),
			Password:  cell(row, "password"),
		})
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
