package repository

import (
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
)

// DefaultStorageUnits 设备出厂的两个存储单元
func DefaultStorageUnits(now time.Time) []models.StorageUnit {
	created := now
	return []models.StorageUnit{
		{
			Name:             "Cold Storage Unit A",
			Type:             "cold",
			TemperatureRange: "2-8°C",
			HumidityControl:  true,
			CurrentTemp:      4.4,
			CurrentHumidity:  61,
			Crops: []models.Crop{
				{Name: "Tomatoes", Quantity: 450, Unit: "kg", Icon: "🍅"},
				{Name: "Chillies", Quantity: 280, Unit: "kg", Icon: "🌶️"},
				{Name: "Leafy Greens", Quantity: 180, Unit: "kg", Icon: "🥬"},
			},
			CreatedAt: &created,
		},
		{
			Name:             "Dry Storage Unit B",
			Type:             "dry",
			TemperatureRange: "15-25°C",
			HumidityControl:  true,
			CurrentTemp:      22.5,
			CurrentHumidity:  45,
			Crops: []models.Crop{
				{Name: "Rice", Quantity: 650, Unit: "kg", Icon: "🍚"},
				{Name: "Wheat", Quantity: 420, Unit: "kg", Icon: "🌾"},
				{Name: "Pulses", Quantity: 220, Unit: "kg", Icon: "🫘"},
			},
			CreatedAt: &created,
		},
	}
}

// DefaultCameraStreams 内外两路摄像头
func DefaultCameraStreams(now time.Time) []models.CameraStream {
	return []models.CameraStream{
		{
			ID:         "cam-inside-01",
			Name:       "Inside Camera",
			Location:   "Storage Container Interior",
			URL:        "https://placeholder-stream-inside.khetbox.local/live",
			Status:     "active",
			LastActive: now,
		},
		{
			ID:         "cam-outside-01",
			Name:       "Outside Camera",
			Location:   "Container Exterior & Entrance",
			URL:        "https://placeholder-stream-outside.khetbox.local/live",
			Status:     "active",
			LastActive: now,
		},
	}
}
