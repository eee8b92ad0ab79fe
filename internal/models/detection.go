package models

import "time"

// DeviceLocation is the location ledger: the single current-state row
// per device recording where it was last detected. A new detection
// replaces reader and timestamp, it never appends.
//
// ReaderID is stored uninterpreted. The source system accepts
// detections for reader ids that were never registered, and that
// leniency is kept here.
type DeviceLocation struct {
	DeviceID   string    `gorm:"primaryKey" json:"deviceId"`
	ReaderID   string    `gorm:"index;not null" json:"readerId"`
	DetectedAt time.Time `gorm:"index;not null" json:"detectedAt"`

	Device Device `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"device"`
}

// TableName specifies the table name for DeviceLocation
func (DeviceLocation) TableName() string {
	return "device_locations"
}
