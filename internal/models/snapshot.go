package models

import (
	"math"
	"time"
)

// Snapshot 设备当前遥测状态（进程内唯一，由 simulator 持有）
// DoorOpenSince 仅在 DoorOpen 为 true 时非空
type Snapshot struct {
	Temperature   float64    // °C
	Humidity      float64    // %
	Battery       float64    // %
	StorageUsed   float64    // %
	SolarActive   bool
	DoorOpen      bool
	DoorOpenSince *time.Time
	LastUpdate    time.Time
}

// Clone 返回不与原值共享指针的副本
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.DoorOpenSince != nil {
		t := *s.DoorOpenSince
		c.DoorOpenSince = &t
	}
	return c
}

// DoorOpenDuration 门已打开的整秒数；门关闭时为 0
func (s Snapshot) DoorOpenDuration(now time.Time) int64 {
	if !s.DoorOpen || s.DoorOpenSince == nil {
		return 0
	}
	d := int64(now.Sub(*s.DoorOpenSince) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// Reading 转换为对外展示的读数（温度保留 1 位小数，其余取整）
func (s Snapshot) Reading(now time.Time) SensorReading {
	return SensorReading{
		Temperature:      Round(s.Temperature, 1),
		Humidity:         Round(s.Humidity, 0),
		Battery:          Round(s.Battery, 0),
		StorageUsed:      Round(s.StorageUsed, 0),
		SolarActive:      s.SolarActive,
		DoorOpen:         s.DoorOpen,
		DoorOpenDuration: s.DoorOpenDuration(now),
		LastUpdate:       s.LastUpdate,
	}
}

// SensorReading /status 与 websocket 推送使用的读数结构
type SensorReading struct {
	Temperature      float64   `json:"temperature"`
	Humidity         float64   `json:"humidity"`
	Battery          float64   `json:"battery"`
	StorageUsed      float64   `json:"storage_used"`
	SolarActive      bool      `json:"solar_active"`
	DoorOpen         bool      `json:"door_open"`
	DoorOpenDuration int64     `json:"door_open_duration"`
	LastUpdate       time.Time `json:"last_update"`
}

// Round 四舍五入到 places 位小数
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
