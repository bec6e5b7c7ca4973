package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	hourlySheet  = "Hourly Data"
)

// XLSXRenderer 两个工作表：Summary 与 Hourly Data
type XLSXRenderer struct{}

var _ Renderer = XLSXRenderer{}

func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXRenderer) FileName(r *models.DailyReport) string { return fileName(r, "xlsx") }

func (XLSXRenderer) Render(r *models.DailyReport, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 之前不能 Close
	fail := func(msg string, err error) ([]byte, error) {
		f.Close()
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return fail("failed to create sheet", err)
	}
	if _, err := f.NewSheet(hourlySheet); err != nil {
		return fail("failed to create sheet", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#059669"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fail("failed to create header style", err)
	}

	// Summary
	rows := [][]interface{}{
		{"KhetBox Daily Report"},
		{"Date", r.Date},
		{"Device", r.DeviceID},
		{},
		{"Metric", "Value"},
	}
	for _, row := range summaryRows(r.Summary) {
		rows = append(rows, []interface{}{row[0], row[1]})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Report Generated", generatedAt.UTC().Format("2006-01-02 15:04:05") + " UTC"})
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fail("failed to write summary row", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A5", "B5", headerStyle); err != nil {
		return fail("failed to set header style", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 24); err != nil {
		return fail("failed to set column width", err)
	}

	// Hourly Data
	header := make([]interface{}, len(hourlyHeader))
	for i, h := range hourlyHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(hourlySheet, "A1", &header); err != nil {
		return fail("failed to write hourly header", err)
	}
	if err := f.SetCellStyle(hourlySheet, "A1", "D1", headerStyle); err != nil {
		return fail("failed to set header style", err)
	}
	for i, h := range r.HourlyData {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{h.Hour, h.Temperature, h.Humidity, h.Battery}
		if err := f.SetSheetRow(hourlySheet, cell, &row); err != nil {
			return fail("failed to write hourly row", err)
		}
	}
	if err := f.SetColWidth(hourlySheet, "A", "D", 18); err != nil {
		return fail("failed to set column width", err)
	}
	if err := f.SetPanes(hourlySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fail("failed to freeze panes", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fail("failed to write to buffer", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}
