package models

import "time"

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
	TableDirty     = "dirty"
)

type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TableNumber string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"table_number"`
	Capacity    int       `gorm:"not null;default:2" json:"capacity"`
	Location    string    `gorm:"type:varchar(100)" json:"location"`
	Status      string    `gorm:"type:varchar(50);not null;default:'available'" json:"status"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
