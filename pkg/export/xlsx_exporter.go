package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Sheet1"

// XLSXExporter renders datasets into a single-sheet Excel workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the header row in bold, one row per record, then the summary
// lines after a blank row. The sheet is renamed to title when given.
func (e *XLSXExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := xlsxSheet
	if title != "" {
		if err := f.SetSheetName(xlsxSheet, title); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
		sheet = title
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, header := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	_ = f.SetColWidth(sheet, "A", lastCol, 16)

	row := 2
	for _, record := range data.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := data.record(record)
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
		row++
	}

	if len(data.Summary) > 0 {
		row++
		for _, line := range data.Summary {
			label, _ := excelize.CoordinatesToCellName(1, row)
			value, _ := excelize.CoordinatesToCellName(2, row)
			_ = f.SetCellValue(sheet, label, line[0])
			_ = f.SetCellValue(sheet, value, line[1])
			_ = f.SetCellStyle(sheet, label, label, headerStyle)
			row++
		}
	}

	buf := &bytes.Buffer{}
	if _, err := f.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
