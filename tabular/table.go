/*
Package tabular provides the column/row table exchanged with the presentation
layer.

PURPOSE:
  The engine consumes and produces plain tables: an ordered header plus string
  rows. Keeping the boundary this dumb means the presentation layer (file
  uploaders, chart widgets, export buttons) can feed us anything it can turn
  into CSV-shaped data, and the engine owns all parsing and validation.

DESIGN:
  - Cells are strings. Typing (timestamps, durations) happens at the
    normalization boundary in the kpi package, where schema descriptors
    say which column is which.
  - Tables are value types. No stage mutates a table it received.

SEE ALSO:
  - kpi/normalize.go: turns raw tables into canonical events
  - cmd/kpirun: reads input tables from CSV files
*/
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is an ordered set of named columns with string-valued rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// IsEmpty reports whether the table carries no rows.
func (t Table) IsEmpty() bool { return len(t.Rows) == 0 }

// ColumnIndex returns the position of a named column.
func (t Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the value at (row, col), tolerating ragged rows.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// RowError wraps a CSV-level failure with the line it occurred on.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("csv error at line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ReadCSV decodes a table from CSV. The first non-comment record is the
// header; records starting with '#' are skipped. Cells are trimmed.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var t Table
	line := 0
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, &RowError{Line: line, Err: err}
		}
		if len(record) == 0 || strings.HasPrefix(record[0], "#") {
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if t.Columns == nil {
			t.Columns = record
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// WriteCSV encodes the table as CSV, header first.
func (t Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
