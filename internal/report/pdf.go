package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer Letter 纸张，标题 + 摘要表 + 小时数据表 + 生成时间
type PDFRenderer struct{}

var _ Renderer = PDFRenderer{}

func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) FileName(r *models.DailyReport) string { return fileName(r, "pdf") }

func (PDFRenderer) Render(r *models.DailyReport, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// 标题
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(5, 150, 105)
	pdf.CellFormat(0, 12, "KhetBox Daily Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "Date: "+r.Date, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	heading := func(text string) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(5, 150, 105)
		pdf.CellFormat(0, 10, text, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	header := func(cols []string, widths []float64, align string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(5, 150, 105)
		pdf.SetTextColor(245, 245, 245)
		for i, c := range cols {
			pdf.CellFormat(widths[i], 8, tr(c), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}

	heading("Daily Summary")
	widths := []float64{76, 50}
	header([]string{"Metric", "Value"}, widths, "L")
	pdf.SetFont("Helvetica", "", 10)
	for i, row := range summaryRows(r.Summary) {
		stripe(pdf, i)
		pdf.CellFormat(widths[0], 7, tr(row[0]), "1", 0, "L", true, 0, "")
		pdf.CellFormat(widths[1], 7, tr(row[1]), "1", 1, "L", true, 0, "")
	}
	pdf.Ln(6)

	heading("Hourly Data")
	if len(r.HourlyData) > 0 {
		hw := []float64{30, 40, 40, 34}
		header(hourlyHeader, hw, "C")
		pdf.SetFont("Helvetica", "", 9)
		for i, h := range r.HourlyData {
			if i == hoursPerReport {
				break
			}
			stripe(pdf, i)
			pdf.CellFormat(hw[0], 6, h.Hour, "1", 0, "C", true, 0, "")
			pdf.CellFormat(hw[1], 6, num(h.Temperature), "1", 0, "C", true, 0, "")
			pdf.CellFormat(hw[2], 6, num(h.Humidity), "1", 0, "C", true, 0, "")
			pdf.CellFormat(hw[3], 6, num(h.Battery), "1", 1, "C", true, 0, "")
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Report Generated: "+generatedAt.UTC().Format("2006-01-02 15:04:05")+" UTC", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// stripe 交替行底色
func stripe(pdf *fpdf.Fpdf, row int) {
	if row%2 == 0 {
		pdf.SetFillColor(255, 255, 255)
	} else {
		pdf.SetFillColor(240, 253, 244)
	}
}
