// Package export renders roll rows as downloadable files.
package export

import (
	"fmt"
	"strings"

	"qrattend/internal/apperror"
	"qrattend/internal/roll"
)

// Format is a target file layout.
type Format string

const (
	Spreadsheet Format = "tabular-spreadsheet"
	Document    Format = "paginated-document"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

// ParseFormat maps a query value to a Format. Empty selects the spreadsheet.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "excel", "xlsx", string(Spreadsheet):
		return Spreadsheet, nil
	case "pdf", string(Document):
		return Document, nil
	default:
		return "", apperror.Validation(fmt.Sprintf("Unsupported export format %q.", s))
	}
}

// File is a rendered export.
type File struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Render formats rows; date only feeds the title and filename.
func Render(rows []roll.Row, format Format, date string) (File, error) {
	switch format {
	case Spreadsheet:
		body, err := renderXLSX(rows)
		if err != nil {
			return File{}, fmt.Errorf("render xlsx: %w", err)
		}
		return File{Body: body, ContentType: xlsxContentType, Filename: "attendance-" + date + ".xlsx"}, nil
	case Document:
		body, err := renderPDF(rows, date)
		if err != nil {
			return File{}, fmt.Errorf("render pdf: %w", err)
		}
		return File{Body: body, ContentType: pdfContentType, Filename: "attendance-" + date + ".pdf"}, nil
	default:
		return File{}, apperror.Validation(fmt.Sprintf("Unsupported export format %q.", format))
	}
}
