package models

// BroadcastPayload 每轮广播推送给订阅者的数据：读数字段平铺 + alerts
type BroadcastPayload struct {
	SensorReading
	Alerts []Alert `json:"alerts"`
}

// CropShare 容量分布中的一项
type CropShare struct {
	Name  string  `json:"name"`
	Kg    float64 `json:"kg"`
	Color string  `json:"color"`
	Icon  string  `json:"icon"`
}

// Capacity /capacity 响应
type Capacity struct {
	TotalCapacityKg float64     `json:"total_capacity_kg"`
	UsedKg          float64     `json:"used_kg"`
	AvailableKg     float64     `json:"available_kg"`
	UsedPercentage  float64     `json:"used_percentage"`
	Breakdown       []CropShare `json:"breakdown"`
}
