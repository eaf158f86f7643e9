package models

import "time"

type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null" json:"order_id"`
	// Field Order tidak ikut di JSON untuk menghindari nesting rekursif
	Order    Order  `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuID   uint   `gorm:"not null" json:"menu_id"`
	Menu     Menu   `gorm:"foreignKey:MenuID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu"`
	MenuName string `gorm:"type:varchar(255);not null" json:"menu_name"`
	SizeName string `gorm:"type:varchar(50)" json:"size_name,omitempty"`
	Quantity int    `gorm:"not null" json:"quantity"`
	// Harga diambil dari katalog saat submit, bukan dari klien
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
