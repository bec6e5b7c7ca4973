package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
)

// memoryAlertCap 每设备保留的告警上限（超出丢弃最旧的）
const memoryAlertCap = 1000

// MemoryStore: DB 未启用或不可达时使用
// - 按 device_id 隔离
// - 与 PostgresStore 相同的 (date, device_id) 唯一约束
type MemoryStore struct {
	mu sync.RWMutex

	sensors map[string]models.Snapshot
	alerts  map[string][]models.Alert
	storage map[string][]models.StorageUnit
	reports map[string]models.DailyReport // deviceID|date -> report
	cameras map[string][]models.CameraStream
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sensors: map[string]models.Snapshot{},
		alerts:  map[string][]models.Alert{},
		storage: map[string][]models.StorageUnit{},
		reports: map[string]models.DailyReport{},
		cameras: map[string][]models.CameraStream{},
	}
}

// NewSeededMemoryStore 带出厂存储单元与摄像头数据
func NewSeededMemoryStore(deviceID string, now time.Time) *MemoryStore {
	m := NewMemoryStore()
	m.storage[deviceID] = DefaultStorageUnits(now)
	m.cameras[deviceID] = DefaultCameraStreams(now)
	return m
}

func reportKey(deviceID, date string) string { return deviceID + "|" + date }

func (m *MemoryStore) UpsertSensor(_ context.Context, deviceID string, s models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sensors[deviceID] = s.Clone()
	return nil
}

func (m *MemoryStore) GetSensor(_ context.Context, deviceID string) (models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sensors[deviceID]
	if !ok {
		return models.Snapshot{}, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) InsertAlerts(_ context.Context, deviceID string, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.alerts[deviceID], alerts...)
	if len(list) > memoryAlertCap {
		list = append([]models.Alert(nil), list[len(list)-memoryAlertCap:]...)
	}
	m.alerts[deviceID] = list
	return nil
}

func (m *MemoryStore) ListAlerts(_ context.Context, deviceID string, limit int) ([]models.Alert, error) {
	m.mu.RLock()
	out := append([]models.Alert{}, m.alerts[deviceID]...)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListStorageUnits(_ context.Context, deviceID string, limit int) ([]models.StorageUnit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.storage[deviceID]
	if limit > 0 && len(src) > limit {
		src = src[:limit]
	}
	out := make([]models.StorageUnit, len(src))
	for i, u := range src {
		u.Crops = append([]models.Crop(nil), u.Crops...)
		out[i] = u
	}
	return out, nil
}

func (m *MemoryStore) GetReport(_ context.Context, deviceID, date string) (*models.DailyReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[reportKey(deviceID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyReport(r), nil
}

func (m *MemoryStore) InsertReportIfAbsent(_ context.Context, r *models.DailyReport) (*models.DailyReport, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := reportKey(r.DeviceID, r.Date)
	if existing, ok := m.reports[key]; ok {
		return copyReport(existing), false, nil
	}
	stored := *copyReport(*r)
	m.reports[key] = stored
	return copyReport(stored), true, nil
}

func (m *MemoryStore) ListCameraStreams(_ context.Context, deviceID string, limit int) ([]models.CameraStream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.cameras[deviceID]
	if limit > 0 && len(src) > limit {
		src = src[:limit]
	}
	return append([]models.CameraStream{}, src...), nil
}

func copyReport(r models.DailyReport) *models.DailyReport {
	c := r
	c.HourlyData = append([]models.HourlyPoint(nil), r.HourlyData...)
	return &c
}
