package models

import (
	"time"

	"gorm.io/datatypes"
)

// Device represents a physical object carrying an RFID tag.
// Convention: Go PascalCase -> DB snake_case (GORM auto) -> JSON camelCase
type Device struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	TagID       string         `gorm:"uniqueIndex;not null" json:"tagId"`
	Name        string         `json:"name"`
	Photo       string         `json:"photo"`
	Description string         `json:"description"`
	Attributes  datatypes.JSON `json:"attributes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TableName specifies the table name for Device
func (Device) TableName() string {
	return "devices"
}
