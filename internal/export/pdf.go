package export

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"

	"qrattend/internal/roll"
)

// Column widths in mm; they add up to the A4 width minus 10mm margins.
var (
	pdfHeaders = []string{"Name", "Email", "Mobile", "Department / Office / Institution Name", "Date/Time"}
	pdfWidths  = []float64{38, 45, 25, 42, 40}
)

func renderPDF(rows []roll.Row, date string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Attendance - "+date), "", 1, "C", false, 0, "")

	if len(rows) > 0 {
		pdf.SetFont("Helvetica", "", 12)
		for _, line := range []string{
			"Meeting: " + rows[0].MeetingTitle,
			"Venue: " + rows[0].MeetingVenue,
			"Time: " + rows[0].MeetingTime,
			"Date: " + rows[0].Date,
		} {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(224, 224, 224)
	for i, h := range pdfHeaders {
		pdf.CellFormat(pdfWidths[i], 7, fit(pdf, tr(h), pdfWidths[i]), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, r := range rows {
		cols := []string{r.FullName, r.Email, r.Mobile, r.Department, r.Timestamp}
		for i, c := range cols {
			pdf.CellFormat(pdfWidths[i], 6, fit(pdf, tr(c), pdfWidths[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit truncates s so it renders inside a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	const pad = 2
	if pdf.GetStringWidth(s) <= w-pad {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w-pad {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
