package store

import "time"

// Device is the persistent device record. The receiver never creates
// devices, it only resolves and mutates records provisioned out-of-band.
type Device struct {
	ID           uint   `gorm:"primaryKey"`
	DeviceID     string `gorm:"column:device_id;uniqueIndex;size:64;not null"`
	Name         string `gorm:"size:64"`
	IMEI         string `gorm:"column:imei;uniqueIndex;size:32"`
	BatteryLevel float64
	IsActive     bool `gorm:"default:true"`
	LastPing     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Location is one persisted reading. Pet extension fields deliberately
// have no columns here; they are published, not stored.
type Location struct {
	ID           uint `gorm:"primaryKey"`
	DeviceRef    uint `gorm:"column:device_id;index;not null"`
	Latitude     float64
	Longitude    float64
	Altitude     float64
	Speed        float64
	Heading      float64
	Timestamp    time.Time `gorm:"index"`
	Accuracy     *float64
	BatteryLevel *float64
	CreatedAt    time.Time
}
