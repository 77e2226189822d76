package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Field is a labelled value printed in the certificate header block.
type Field struct {
	Label string
	Value string
}

// Certificate describes a printable document with a header block and an
// optional detail table.
type Certificate struct {
	Title  string
	Fields []Field
	Table  Dataset
	Footer string
}

// PDFExporter renders certificates into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document for the certificate.
func (e *PDFExporter) Render(cert Certificate) ([]byte, error) {
	if cert.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, strings.ToUpper(cert.Title), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	for _, field := range cert.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 7, field.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, field.Value, "", 1, "", false, 0, "")
	}

	if len(cert.Table.Headers) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 10)
		colWidth := 190.0 / float64(len(cert.Table.Headers))
		for _, header := range cert.Table.Headers {
			pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range cert.Table.Rows {
			for _, header := range cert.Table.Headers {
				pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if cert.Footer != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 7, cert.Footer, "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
