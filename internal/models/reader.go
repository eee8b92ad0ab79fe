package models

import "time"

// Reader represents a stationary RFID reader devices pass by.
type Reader struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Reader
func (Reader) TableName() string {
	return "readers"
}
