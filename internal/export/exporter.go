package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

// Supported export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// File is a rendered export ready to be downloaded.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// StudentDataset lays out records with display headers for the columns present.
func StudentDataset(columns []string, rows []models.StudentRecord) Dataset {
	headers := make([]string, 0, len(columns))
	for _, column := range columns {
		headers = append(headers, models.DisplayName(column))
	}

	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, column := range columns {
			record[i] = formatValue(row, column)
		}
		data = append(data, record)
	}
	return Dataset{Headers: headers, Rows: data}
}

func formatValue(row models.StudentRecord, column string) string {
	value, ok := row.Value(column)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case models.Date:
		if !v.Valid {
			return ""
		}
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// RenderCSV produces CSV encoded bytes for the dataset.
func RenderCSV(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF creates a landscape PDF with an optional title and a table body.
func RenderPDF(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, translate(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	colWidth := 277.0 / float64(len(data.Headers))
	pdf.SetFont("Arial", "B", 10)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, value := range row {
			pdf.CellFormat(colWidth, 7, translate(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Render builds a downloadable file in the requested format.
func Render(format, baseName, title string, data Dataset) (File, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		body, err := RenderCSV(data)
		if err != nil {
			return File{}, err
		}
		return File{Name: baseName + ".csv", ContentType: "text/csv", Body: body}, nil
	case FormatPDF:
		body, err := RenderPDF(data, title)
		if err != nil {
			return File{}, err
		}
		return File{Name: baseName + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return File{}, fmt.Errorf("unsupported export format %q", format)
	}
}
