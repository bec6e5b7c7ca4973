package evaluator

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"

	"github.com/google/uuid"
)

// Thresholds 告警阈值（严格比较：等于阈值不触发）
type Thresholds struct {
	TemperatureCritical float64 // > 触发 critical
	TemperatureWarning  float64 // > 触发 warning
	BatteryCritical     float64 // < 触发 critical
	BatteryWarning      float64 // < 触发 warning
	HumidityWarning     float64 // > 触发 warning
	DoorOpenSeconds     int64   // > 触发 warning
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TemperatureCritical: 8,
		TemperatureWarning:  6,
		BatteryCritical:     25,
		BatteryWarning:      40,
		HumidityWarning:     80,
		DoorOpenSeconds:     300,
	}
}

// Evaluator 快照 → 告警列表。无状态，可并发调用。
type Evaluator struct {
	thresholds Thresholds
	now        func() time.Time
	newID      func() string
}

type Option func(*Evaluator)

func WithThresholds(th Thresholds) Option {
	return func(e *Evaluator) { e.thresholds = th }
}

func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithIDGenerator 替换告警 ID 生成器（默认 uuid v4）
func WithIDGenerator(gen func() string) Option {
	return func(e *Evaluator) { e.newID = gen }
}

// New 创建评估器
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		thresholds: DefaultThresholds(),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate 按固定顺序评估：温度、电量、湿度、门；均未触发时返回一条已确认的 normal 告警
func (e *Evaluator) Evaluate(s models.Snapshot) []models.Alert {
	return e.EvaluateAt(s, e.now())
}

// EvaluateAt 以给定时刻计算开门时长并生成告警
func (e *Evaluator) EvaluateAt(s models.Snapshot, now time.Time) []models.Alert {
	th := e.thresholds
	// 判定使用原始值，消息展示使用取整值
	shown := s.Reading(now)
	var alerts []models.Alert

	switch {
	case s.Temperature > th.TemperatureCritical:
		alerts = append(alerts, e.build(models.SeverityCritical, now,
			fmt.Sprintf("Temperature Critical: %s°C exceeds safe limit (%s°C)", num(shown.Temperature), num(th.TemperatureCritical))))
	case s.Temperature > th.TemperatureWarning:
		alerts = append(alerts, e.build(models.SeverityWarning, now,
			fmt.Sprintf("Temperature Warning: %s°C approaching limit", num(shown.Temperature))))
	}

	switch {
	case s.Battery < th.BatteryCritical:
		alerts = append(alerts, e.build(models.SeverityCritical, now,
			fmt.Sprintf("Battery Critical: %s%% - Charge immediately!", num(shown.Battery))))
	case s.Battery < th.BatteryWarning:
		alerts = append(alerts, e.build(models.SeverityWarning, now,
			fmt.Sprintf("Battery Low: %s%% remaining", num(shown.Battery))))
	}

	if s.Humidity > th.HumidityWarning {
		alerts = append(alerts, e.build(models.SeverityWarning, now,
			fmt.Sprintf("High Humidity: %s%% - Check ventilation", num(shown.Humidity))))
	}

	if d := s.DoorOpenDuration(now); s.DoorOpen && d > th.DoorOpenSeconds {
		alerts = append(alerts, e.build(models.SeverityWarning, now,
			fmt.Sprintf("Door Open: Container door has been open for %d minutes", d/60)))
	}

	if len(alerts) == 0 {
		normal := e.build(models.SeverityNormal, now, "All systems operating normally")
		normal.Acknowledged = true
		alerts = append(alerts, normal)
	}
	return alerts
}

func (e *Evaluator) build(sev models.Severity, now time.Time, msg string) models.Alert {
	return models.Alert{
		ID:        e.newID(),
		Severity:  sev,
		Message:   msg,
		Timestamp: now,
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
