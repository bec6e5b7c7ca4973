package models

import "time"

type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert 告警（每次评估重新生成，不跨评估保留身份）
type Alert struct {
	ID           string    `json:"id" db:"id"`
	Severity     Severity  `json:"severity" db:"severity"`
	Message      string    `json:"message" db:"message"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Acknowledged bool      `json:"acknowledged" db:"acknowledged"`
}

// Actionable 是否需要人工处理（warning / critical）
func (a Alert) Actionable() bool {
	return a.Severity == SeverityWarning || a.Severity == SeverityCritical
}

// AlertsView /alerts 响应
type AlertsView struct {
	Alerts        []Alert `json:"alerts"`
	TotalCount    int     `json:"total_count"`
	CriticalCount int     `json:"critical_count"`
	WarningCount  int     `json:"warning_count"`
}

func NewAlertsView(alerts []Alert) AlertsView {
	if alerts == nil {
		alerts = []Alert{}
	}
	v := AlertsView{Alerts: alerts, TotalCount: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			v.CriticalCount++
		case SeverityWarning:
			v.WarningCount++
		}
	}
	return v
}
