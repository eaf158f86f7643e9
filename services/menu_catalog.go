package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
)

// ErrMenuNotFound dikembalikan resolver saat item atau varian ukuran
// tidak ada di katalog; order service memetakannya ke ErrInvalidCart.
var ErrMenuNotFound = errors.New("menu item not found in catalog")

// PriceResolver adalah kontrak ke katalog menu. Harga SELALU diambil dari
// sini saat submit; total maupun harga kiriman klien tidak pernah dipercaya.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, menuID uint, sizeID *uint) (ResolvedItem, error)
}

// ResolvedItem adalah hasil resolusi satu baris cart dari katalog.
type ResolvedItem struct {
	MenuID   uint
	MenuName string
	SizeName string
	Price    float64
}

// GormCatalog adalah implementasi PriceResolver di atas tabel menu lokal.
type GormCatalog struct {
	DB *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{DB: db}
}

func (gc *GormCatalog) ResolvePrice(ctx context.Context, menuID uint, sizeID *uint) (ResolvedItem, error) {
	var menu models.Menu
	if err := gc.DB.WithContext(ctx).First(&menu, menuID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ResolvedItem{}, ErrMenuNotFound
		}
		return ResolvedItem{}, err
	}

	resolved := ResolvedItem{
		MenuID:   menu.ID,
		MenuName: menu.Name,
		Price:    menu.Price,
	}

	if sizeID != nil {
		var size models.MenuSize
		err := gc.DB.WithContext(ctx).
			Where("id = ? AND menu_id = ?", *sizeID, menu.ID).
			First(&size).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Varian harus benar-benar milik menu tersebut
				return ResolvedItem{}, ErrMenuNotFound
			}
			return ResolvedItem{}, err
		}
		resolved.SizeName = size.Name
		resolved.Price = size.Price
	}

	return resolved, nil
}
