package repository

import (
	"context"
	"errors"

	"github.com/Shradha102005/KhetBox/internal/models"
)

// ErrNotFound 按键查询无记录
var ErrNotFound = errors.New("not found")

// SensorRepository 设备最新读数（每设备一行，upsert）
type SensorRepository interface {
	UpsertSensor(ctx context.Context, deviceID string, s models.Snapshot) error
	GetSensor(ctx context.Context, deviceID string) (models.Snapshot, error)
}

// AlertRepository 告警记录（只追加）
type AlertRepository interface {
	InsertAlerts(ctx context.Context, deviceID string, alerts []models.Alert) error
	// ListAlerts 按 timestamp 倒序，最多 limit 条
	ListAlerts(ctx context.Context, deviceID string, limit int) ([]models.Alert, error)
}

type StorageRepository interface {
	ListStorageUnits(ctx context.Context, deviceID string, limit int) ([]models.StorageUnit, error)
}

// ReportRepository 日报，(date, device_id) 唯一
type ReportRepository interface {
	GetReport(ctx context.Context, deviceID, date string) (*models.DailyReport, error)
	// InsertReportIfAbsent 仅在键不存在时写入；返回库中最终保存的那一份，created 表示是否由本次写入
	InsertReportIfAbsent(ctx context.Context, r *models.DailyReport) (stored *models.DailyReport, created bool, err error)
}

type CameraRepository interface {
	ListCameraStreams(ctx context.Context, deviceID string, limit int) ([]models.CameraStream, error)
}

// Store 五类资源的持久化集合
type Store interface {
	SensorRepository
	AlertRepository
	StorageRepository
	ReportRepository
	CameraRepository
}
