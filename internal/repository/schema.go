package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sensors (
		device_id       TEXT PRIMARY KEY,
		temperature     DOUBLE PRECISION NOT NULL,
		humidity        DOUBLE PRECISION NOT NULL,
		battery         DOUBLE PRECISION NOT NULL,
		storage_used    DOUBLE PRECISION NOT NULL,
		solar_active    BOOLEAN NOT NULL,
		door_open       BOOLEAN NOT NULL,
		door_open_since TIMESTAMPTZ NULL,
		last_update     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id           TEXT PRIMARY KEY,
		device_id    TEXT NOT NULL,
		severity     TEXT NOT NULL,
		message      TEXT NOT NULL,
		timestamp    TIMESTAMPTZ NOT NULL,
		acknowledged BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_device_ts ON alerts (device_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS storage (
		id                SERIAL PRIMARY KEY,
		device_id         TEXT NOT NULL,
		name              TEXT NOT NULL,
		type              TEXT NOT NULL,
		temperature_range TEXT NOT NULL,
		humidity_control  BOOLEAN NOT NULL DEFAULT TRUE,
		current_temp      DOUBLE PRECISION NOT NULL,
		current_humidity  DOUBLE PRECISION NOT NULL,
		crops             JSONB NOT NULL DEFAULT '[]',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_storage_device ON storage (device_id)`,
	`CREATE TABLE IF NOT EXISTS reports (
		date              TEXT NOT NULL,
		device_id         TEXT NOT NULL,
		avg_temperature   DOUBLE PRECISION NOT NULL,
		min_temperature   DOUBLE PRECISION NOT NULL,
		max_temperature   DOUBLE PRECISION NOT NULL,
		avg_humidity      DOUBLE PRECISION NOT NULL,
		avg_battery       DOUBLE PRECISION NOT NULL,
		alerts_count      INTEGER NOT NULL,
		uptime_percentage DOUBLE PRECISION NOT NULL,
		hourly_data       JSONB NOT NULL DEFAULT '[]',
		created_at        TIMESTAMPTZ NOT NULL,
		UNIQUE (date, device_id)
	)`,
	`CREATE TABLE IF NOT EXISTS cctv_streams (
		id          TEXT PRIMARY KEY,
		device_id   TEXT NOT NULL,
		name        TEXT NOT NULL,
		location    TEXT NOT NULL,
		url         TEXT NOT NULL,
		status      TEXT NOT NULL,
		last_active TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cctv_device ON cctv_streams (device_id)`,
}

// EnsureSchema 建表（幂等）
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
