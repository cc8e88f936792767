package export

import (
	"github.com/xuri/excelize/v2"

	"qrattend/internal/roll"
)

const sheetName = "Attendance"

type column struct {
	header string
	width  float64
	value  func(roll.Row) string
}

var sheetColumns = []column{
	{"Name", 25, func(r roll.Row) string { return r.FullName }},
	{"Email", 30, func(r roll.Row) string { return r.Email }},
	{"Mobile", 15, func(r roll.Row) string { return r.Mobile }},
	{"Department", 20, func(r roll.Row) string { return r.Department }},
	{"Meeting Title", 25, func(r roll.Row) string { return r.MeetingTitle }},
	{"Venue", 20, func(r roll.Row) string { return r.MeetingVenue }},
	{"Time", 15, func(r roll.Row) string { return r.MeetingTime }},
	{"Date", 15, func(r roll.Row) string { return r.Date }},
	{"Attendance Time", 25, func(r roll.Row) string { return r.Timestamp }},
}

func renderXLSX(rows []roll.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	header := make([]interface{}, len(sheetColumns))
	for i, c := range sheetColumns {
		header[i] = c.header
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, c.width); err != nil {
			return nil, err
		}
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, style); err != nil {
		return nil, err
	}

	for i, r := range rows {
		values := make([]interface{}, len(sheetColumns))
		for j, c := range sheetColumns {
			values[j] = c.value(r)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
