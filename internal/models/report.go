package models

import (
	"encoding/json"
	"time"
)

// HourlyPoint 日报中的小时数据点
type HourlyPoint struct {
	Hour        string    `json:"hour"` // "HH:00"
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Battery     float64   `json:"battery"`
}

// ReportSummary 日报统计
type ReportSummary struct {
	AvgTemperature   float64 `json:"avg_temperature" db:"avg_temperature"`
	MinTemperature   float64 `json:"min_temperature" db:"min_temperature"`
	MaxTemperature   float64 `json:"max_temperature" db:"max_temperature"`
	AvgHumidity      float64 `json:"avg_humidity" db:"avg_humidity"`
	AvgBattery       float64 `json:"avg_battery" db:"avg_battery"`
	AlertsCount      int     `json:"alerts_count" db:"alerts_count"`
	UptimePercentage float64 `json:"uptime_percentage" db:"uptime_percentage"`
}

// DailyReport 日报，(Date, DeviceID) 唯一；创建后不再修改
type DailyReport struct {
	Date       string        `json:"date"` // YYYY-MM-DD
	DeviceID   string        `json:"device_id"`
	Summary    ReportSummary `json:"summary"`
	HourlyData []HourlyPoint `json:"hourly_data"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ReportCharts 前端图表数据（与 hourly_data 同源）
type ReportCharts struct {
	TemperatureTrend []HourlyPoint `json:"temperature_trend"`
	HumidityTrend    []HourlyPoint `json:"humidity_trend"`
}

// MarshalJSON 附加 charts 字段
func (r DailyReport) MarshalJSON() ([]byte, error) {
	type plain DailyReport
	return json.Marshal(struct {
		plain
		Charts ReportCharts `json:"charts"`
	}{
		plain:  plain(r),
		Charts: ReportCharts{TemperatureTrend: r.HourlyData, HumidityTrend: r.HourlyData},
	})
}
