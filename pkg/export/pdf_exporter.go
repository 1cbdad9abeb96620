package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	landscapeColumnThreshold = 6
	pdfRowHeight             = 7.0
	pdfHeaderHeight          = 8.0
	pdfMargin                = 10.0
)

// PDFExporter renders datasets into a paged A4 table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays data out as a table under an optional title. Wide tables switch
// to landscape, the column header repeats on every page and each page carries
// an "n/total" footer. Text is transcoded to cp1252 so accented names survive.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}

	orientation := "P"
	if len(data.Headers) > landscapeColumnThreshold {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 15, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	colWidth := (pageWidth - 2*pdfMargin) / float64(len(data.Headers))
	bottom := pageHeight - 15

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	tableHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(235, 235, 235)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, pdfHeaderHeight, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}
	tableHeader()

	for _, row := range data.Rows {
		if pdf.GetY()+pdfRowHeight > bottom {
			pdf.AddPage()
			tableHeader()
		}
		for i, cell := range data.record(row) {
			align := "L"
			if data.RightAlign[data.Headers[i]] {
				align = "R"
			}
			pdf.CellFormat(colWidth, pdfRowHeight, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(data.Summary) > 0 {
		if pdf.GetY()+float64(len(data.Summary))*6+4 > bottom {
			pdf.AddPage()
		}
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 9)
		for _, line := range data.Summary {
			pdf.CellFormat(50, 6, tr(line[0]), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, tr(line[1]), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
