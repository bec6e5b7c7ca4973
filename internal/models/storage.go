package models

import "time"

// Crop 存储单元内的作物
type Crop struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Icon     string  `json:"icon,omitempty"`
}

// StorageUnit 存储单元（对应 storage 表）
type StorageUnit struct {
	Name             string     `json:"name"`
	Type             string     `json:"type"` // cold, dry
	TemperatureRange string     `json:"temperature_range"`
	HumidityControl  bool       `json:"humidity_control"`
	CurrentTemp      float64    `json:"current_temp"`
	CurrentHumidity  float64    `json:"current_humidity"`
	Crops            []Crop     `json:"crops"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// CameraStream 摄像头流（对应 cctv_streams 表）
type CameraStream struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	LastActive time.Time `json:"last_active"`
}
