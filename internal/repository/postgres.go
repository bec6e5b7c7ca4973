package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"

	"go.uber.org/zap"
)

// PostgresStore PostgreSQL 实现
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

var _ Store = (*PostgresStore)(nil)

// ============================================
// sensors
// ============================================

func (r *PostgresStore) UpsertSensor(ctx context.Context, deviceID string, s models.Snapshot) error {
	if deviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	var since sql.NullTime
	if s.DoorOpenSince != nil {
		since = sql.NullTime{Time: *s.DoorOpenSince, Valid: true}
	}
	query := `
		INSERT INTO sensors (
			device_id, temperature, humidity, battery, storage_used,
			solar_active, door_open, door_open_since, last_update
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (device_id) DO UPDATE SET
			temperature     = EXCLUDED.temperature,
			humidity        = EXCLUDED.humidity,
			battery         = EXCLUDED.battery,
			storage_used    = EXCLUDED.storage_used,
			solar_active    = EXCLUDED.solar_active,
			door_open       = EXCLUDED.door_open,
			door_open_since = EXCLUDED.door_open_since,
			last_update     = EXCLUDED.last_update
	`
	_, err := r.db.ExecContext(ctx, query,
		deviceID, s.Temperature, s.Humidity, s.Battery, s.StorageUsed,
		s.SolarActive, s.DoorOpen, since, s.LastUpdate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sensor: %w", err)
	}
	return nil
}

func (r *PostgresStore) GetSensor(ctx context.Context, deviceID string) (models.Snapshot, error) {
	query := `
		SELECT temperature, humidity, battery, storage_used,
		       solar_active, door_open, door_open_since, last_update
		FROM sensors
		WHERE device_id = $1
	`
	var s models.Snapshot
	var since sql.NullTime
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&s.Temperature, &s.Humidity, &s.Battery, &s.StorageUsed,
		&s.SolarActive, &s.DoorOpen, &since, &s.LastUpdate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, ErrNotFound
		}
		return models.Snapshot{}, fmt.Errorf("failed to get sensor: %w", err)
	}
	if since.Valid {
		t := since.Time
		s.DoorOpenSince = &t
	}
	return s, nil
}

// ============================================
// alerts
// ============================================

// InsertAlerts 单条语句批量写入
func (r *PostgresStore) InsertAlerts(ctx context.Context, deviceID string, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO alerts (id, device_id, severity, message, timestamp, acknowledged) VALUES `)
	args := make([]any, 0, len(alerts)*6)
	for i, a := range alerts {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6)
		args = append(args, a.ID, deviceID, string(a.Severity), a.Message, a.Timestamp, a.Acknowledged)
	}
	sb.WriteString(` ON CONFLICT (id) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert alerts: %w", err)
	}
	return nil
}

func (r *PostgresStore) ListAlerts(ctx context.Context, deviceID string, limit int) ([]models.Alert, error) {
	query := `
		SELECT id, severity, message, timestamp, acknowledged
		FROM alerts
		WHERE device_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	out := []models.Alert{}
	for rows.Next() {
		var a models.Alert
		var sev string
		if err := rows.Scan(&a.ID, &sev, &a.Message, &a.Timestamp, &a.Acknowledged); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Severity = models.Severity(sev)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ============================================
// storage
// ============================================

func (r *PostgresStore) ListStorageUnits(ctx context.Context, deviceID string, limit int) ([]models.StorageUnit, error) {
	query := `
		SELECT name, type, temperature_range, humidity_control,
		       current_temp, current_humidity, crops, created_at
		FROM storage
		WHERE device_id = $1
		ORDER BY id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage units: %w", err)
	}
	defer rows.Close()

	out := []models.StorageUnit{}
	for rows.Next() {
		var u models.StorageUnit
		var crops []byte
		var created sql.NullTime
		if err := rows.Scan(&u.Name, &u.Type, &u.TemperatureRange, &u.HumidityControl,
			&u.CurrentTemp, &u.CurrentHumidity, &crops, &created); err != nil {
			return nil, fmt.Errorf("failed to scan storage unit: %w", err)
		}
		u.Crops = []models.Crop{}
		if len(crops) > 0 {
			if err := json.Unmarshal(crops, &u.Crops); err != nil {
				r.logger.Warn("Invalid crops JSON", zap.String("unit", u.Name), zap.Error(err))
			}
		}
		if created.Valid {
			t := created.Time
			u.CreatedAt = &t
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// InsertStorageUnit 写入存储单元（初始化数据用）
func (r *PostgresStore) InsertStorageUnit(ctx context.Context, deviceID string, u models.StorageUnit) error {
	crops, err := json.Marshal(u.Crops)
	if err != nil {
		return fmt.Errorf("failed to marshal crops: %w", err)
	}
	query := `
		INSERT INTO storage (device_id, name, type, temperature_range, humidity_control,
		                     current_temp, current_humidity, crops)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query, deviceID, u.Name, u.Type, u.TemperatureRange,
		u.HumidityControl, u.CurrentTemp, u.CurrentHumidity, crops); err != nil {
		return fmt.Errorf("failed to insert storage unit: %w", err)
	}
	return nil
}

// ============================================
// reports
// ============================================

func (r *PostgresStore) GetReport(ctx context.Context, deviceID, date string) (*models.DailyReport, error) {
	query := `
		SELECT date, device_id, avg_temperature, min_temperature, max_temperature,
		       avg_humidity, avg_battery, alerts_count, uptime_percentage,
		       hourly_data, created_at
		FROM reports
		WHERE date = $1 AND device_id = $2
	`
	var rep models.DailyReport
	var hourly []byte
	err := r.db.QueryRowContext(ctx, query, date, deviceID).Scan(
		&rep.Date, &rep.DeviceID,
		&rep.Summary.AvgTemperature, &rep.Summary.MinTemperature, &rep.Summary.MaxTemperature,
		&rep.Summary.AvgHumidity, &rep.Summary.AvgBattery, &rep.Summary.AlertsCount,
		&rep.Summary.UptimePercentage, &hourly, &rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	rep.HourlyData = []models.HourlyPoint{}
	if len(hourly) > 0 {
		if err := json.Unmarshal(hourly, &rep.HourlyData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hourly_data: %w", err)
		}
	}
	return &rep, nil
}

// InsertReportIfAbsent 依赖 UNIQUE(date, device_id)：并发创建时只有一行落库，
// 所有调用方都回读并返回同一份
func (r *PostgresStore) InsertReportIfAbsent(ctx context.Context, rep *models.DailyReport) (*models.DailyReport, bool, error) {
	if rep == nil || rep.Date == "" || rep.DeviceID == "" {
		return nil, false, fmt.Errorf("date and device_id are required")
	}
	hourly, err := json.Marshal(rep.HourlyData)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal hourly_data: %w", err)
	}
	query := `
		INSERT INTO reports (
			date, device_id, avg_temperature, min_temperature, max_temperature,
			avg_humidity, avg_battery, alerts_count, uptime_percentage,
			hourly_data, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (date, device_id) DO NOTHING
	`
	s := rep.Summary
	res, err := r.db.ExecContext(ctx, query,
		rep.Date, rep.DeviceID, s.AvgTemperature, s.MinTemperature, s.MaxTemperature,
		s.AvgHumidity, s.AvgBattery, s.AlertsCount, s.UptimePercentage,
		hourly, rep.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	stored, err := r.GetReport(ctx, rep.DeviceID, rep.Date)
	if err != nil {
		return nil, false, err
	}
	return stored, affected == 1, nil
}

// ============================================
// cctv_streams
// ============================================

func (r *PostgresStore) ListCameraStreams(ctx context.Context, deviceID string, limit int) ([]models.CameraStream, error) {
	query := `
		SELECT id, name, location, url, status, last_active
		FROM cctv_streams
		WHERE device_id = $1
		ORDER BY id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list camera streams: %w", err)
	}
	defer rows.Close()

	out := []models.CameraStream{}
	for rows.Next() {
		var c models.CameraStream
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.URL, &c.Status, &c.LastActive); err != nil {
			return nil, fmt.Errorf("failed to scan camera stream: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCameraStream 写入或更新摄像头流
func (r *PostgresStore) UpsertCameraStream(ctx context.Context, deviceID string, c models.CameraStream) error {
	query := `
		INSERT INTO cctv_streams (id, device_id, name, location, url, status, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, location = EXCLUDED.location, url = EXCLUDED.url,
			status = EXCLUDED.status, last_active = EXCLUDED.last_active
	`
	if _, err := r.db.ExecContext(ctx, query, c.ID, deviceID, c.Name, c.Location, c.URL, c.Status, c.LastActive); err != nil {
		return fmt.Errorf("failed to upsert camera stream: %w", err)
	}
	return nil
}

// SeedDefaults 设备无存储单元时写入出厂数据；摄像头按 id upsert
func (r *PostgresStore) SeedDefaults(ctx context.Context, deviceID string, now time.Time) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM storage WHERE device_id = $1`, deviceID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count storage units: %w", err)
	}
	if count == 0 {
		for _, u := range DefaultStorageUnits(now) {
			if err := r.InsertStorageUnit(ctx, deviceID, u); err != nil {
				return err
			}
		}
		r.logger.Info("Seeded storage units", zap.String("device_id", deviceID))
	}
	for _, c := range DefaultCameraStreams(now) {
		if err := r.UpsertCameraStream(ctx, deviceID, c); err != nil {
			return err
		}
	}
	return nil
}
