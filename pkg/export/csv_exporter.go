package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

var errNoHeaders = errors.New("dataset has no headers")

// Dataset is a rendered-agnostic table: ordered headers, rows keyed by
// header and trailing label/value summary lines.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Summary lines are printed beneath the table (PDF) or as trailing label/value rows (CSV, XLSX).
	Summary [][2]string
	// RightAlign lists headers whose cells are numeric.
	RightAlign map[string]bool
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s: %w", format, errNoHeaders)
	}
	return nil
}

// record lays row out in header order; missing cells are blank.
func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}

// CSVExporter renders a Dataset as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes headers, rows, a blank separator and the summary lines.
// Cells that a spreadsheet would evaluate as a formula are prefixed with a quote.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("csv"); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := make([][]string, 0, len(data.Rows)+len(data.Summary)+2)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		records = append(records, neutralise(data.record(row)))
	}
	if len(data.Summary) > 0 {
		records = append(records, nil)
		for _, line := range data.Summary {
			records = append(records, []string{line[0], line[1]})
		}
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// neutralise defuses user supplied text such as team names that start with
// a formula trigger.
func neutralise(cells []string) []string {
	for i, cell := range cells {
		if cell != "" && strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
			cells[i] = "'" + cell
		}
	}
	return cells
}
