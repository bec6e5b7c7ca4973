package gateway

import (
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
	"github.com/Shradha102005/KhetBox/internal/repository"
)

// SnapshotSource 当前快照的只读来源（simulator）
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// AlertSource 由快照生成告警（evaluator）
type AlertSource interface {
	Evaluate(s models.Snapshot) []models.Alert
}

// Generator 读路径的兜底：总能返回与存储结构一致的数据
type Generator interface {
	StorageUnits() []models.StorageUnit
	Alerts() []models.Alert
	CameraStreams() []models.CameraStream
}

// LiveGenerator 基于当前快照生成兜底数据
type LiveGenerator struct {
	snapshots SnapshotSource
	alerts    AlertSource
	now       func() time.Time
}

var _ Generator = (*LiveGenerator)(nil)

func NewLiveGenerator(snapshots SnapshotSource, alerts AlertSource, now func() time.Time) *LiveGenerator {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &LiveGenerator{snapshots: snapshots, alerts: alerts, now: now}
}

// StorageUnits 单个冷藏单元，温湿度取自当前快照
func (g *LiveGenerator) StorageUnits() []models.StorageUnit {
	r := g.snapshots.Snapshot().Reading(g.now())
	return []models.StorageUnit{{
		Name:             "Cold Storage Unit A",
		Type:             "cold",
		TemperatureRange: "2-8°C",
		HumidityControl:  true,
		CurrentTemp:      r.Temperature,
		CurrentHumidity:  r.Humidity,
		Crops:            []models.Crop{},
	}}
}

func (g *LiveGenerator) Alerts() []models.Alert {
	return g.alerts.Evaluate(g.snapshots.Snapshot())
}

func (g *LiveGenerator) CameraStreams() []models.CameraStream {
	return repository.DefaultCameraStreams(g.now())
}
