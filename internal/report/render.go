package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
)

// Renderer 将日报渲染为可下载文档
type Renderer interface {
	ContentType() string
	FileName(r *models.DailyReport) string
	Render(r *models.DailyReport, generatedAt time.Time) ([]byte, error)
}

// summaryRows 摘要表（不含表头）
func summaryRows(s models.ReportSummary) [][2]string {
	return [][2]string{
		{"Average Temperature", num(s.AvgTemperature) + "°C"},
		{"Min Temperature", num(s.MinTemperature) + "°C"},
		{"Max Temperature", num(s.MaxTemperature) + "°C"},
		{"Average Humidity", num(s.AvgHumidity) + "%"},
		{"Average Battery", num(s.AvgBattery) + "%"},
		{"Total Alerts", strconv.Itoa(s.AlertsCount)},
		{"Uptime", num(s.UptimePercentage) + "%"},
	}
}

var hourlyHeader = []string{"Hour", "Temperature (°C)", "Humidity (%)", "Battery (%)"}

func fileName(r *models.DailyReport, ext string) string {
	return fmt.Sprintf("khetbox-daily-report-%s.%s", r.Date, ext)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
