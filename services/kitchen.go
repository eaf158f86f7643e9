package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
)

// Kitchen adalah kontrak ke subsistem dapur/order. CreateOrder dipanggil di
// dalam transaksi yang sama dengan flip order_placed; kalau dapur gagal,
// transaksi di-rollback dan sesi tetap active.
type Kitchen interface {
	CreateOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// GormKitchen menulis order ke tabel orders/order_items lokal yang dibaca
// tampilan dapur.
type GormKitchen struct{}

func NewGormKitchen() *GormKitchen {
	return &GormKitchen{}
}

func (gk *GormKitchen) CreateOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}
