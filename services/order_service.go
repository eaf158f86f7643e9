package services

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/utils"
)

// CartItem adalah satu baris cart kiriman klien. Cart dipegang klien sampai
// submit; semua field diperlakukan sebagai input tak terpercaya.
type CartItem struct {
	MenuID   uint   `json:"menu_id" binding:"required"`
	SizeID   *uint  `json:"size_id,omitempty"`
	Quantity int    `json:"quantity" binding:"required"`
	Notes    string `json:"notes"`
}

// OrderService memvalidasi submit order terhadap sesi dan meneruskan order
// hasil resolusi harga ke dapur, tepat satu kali per sesi.
type OrderService struct {
	Store   *SessionStore
	Catalog PriceResolver
	Kitchen Kitchen
	Clock   clockwork.Clock
	// Batas waktu panggilan kolaborator (katalog + dapur)
	Timeout time.Duration
}

func NewOrderService(store *SessionStore, catalog PriceResolver, kitchen Kitchen, clock clockwork.Clock) *OrderService {
	return &OrderService{
		Store:   store,
		Catalog: catalog,
		Kitchen: kitchen,
		Clock:   clock,
		Timeout: 10 * time.Second,
	}
}

// SubmitOrder adalah batas idempotensi: submit kedua dengan token yang sama,
// termasuk retry jaringan, tidak pernah menghasilkan order kedua.
func (svc *OrderService) SubmitOrder(ctx context.Context, token string, items []CartItem, notes string) (*models.Order, error) {
	found, err := svc.Store.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	unlock := svc.Store.LockSession(found.ID)
	defer unlock()

	// Titik validasi: status sesi diputuskan di sini, di bawah lock,
	// sehingga balapan dengan renewal/sweep selesai secara deterministik
	session, err := svc.Store.FindByID(found.ID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	now := svc.Clock.Now()
	switch {
	case session.Status == models.SessionOrderPlaced:
		return nil, ErrAlreadySubmitted
	case session.Status == models.SessionEnded, session.Status == models.SessionExpired:
		return nil, ErrSessionClosed
	case !now.Before(session.ExpiresAt):
		// Kadaluarsa tepat sebelum titik validasi
		session.Status = models.SessionExpired
		if err := svc.Store.Save(session); err != nil {
			return nil, err
		}
		return nil, ErrSessionClosed
	}

	if len(items) == 0 {
		return nil, ErrInvalidCart
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, ErrInvalidCart
		}
	}

	ctx, cancel := context.WithTimeout(ctx, svc.Timeout)
	defer cancel()

	// Harga otoritatif dari katalog; total dihitung server-side
	order := &models.Order{
		SessionID: session.ID,
		TableID:   session.TableID,
		Status:    models.OrderReceived,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var total float64
	for _, item := range items {
		resolved, err := svc.Catalog.ResolvePrice(ctx, item.MenuID, item.SizeID)
		if err != nil {
			return nil, mapUpstreamError(err)
		}
		total += resolved.Price * float64(item.Quantity)
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			MenuID:    resolved.MenuID,
			MenuName:  resolved.MenuName,
			SizeName:  resolved.SizeName,
			Quantity:  item.Quantity,
			Price:     resolved.Price,
			Notes:     item.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	order.TotalAmount = total

	// Flip order_placed dan serah ke dapur harus satu kesatuan: kalau
	// dapur gagal, rollback mengembalikan sesi ke active dan klien boleh
	// retry dengan token yang sama
	err = svc.Store.DB.Transaction(func(tx *gorm.DB) error {
		session.Status = models.SessionOrderPlaced
		session.OrderPlaced = true
		session.LastAccessedAt = now
		if err := tx.Save(session).Error; err != nil {
			return err
		}
		return svc.Kitchen.CreateOrder(ctx, tx, order)
	})
	if err != nil {
		// In-memory state ikut dikembalikan supaya konsisten dengan DB
		session.Status = models.SessionActive
		session.OrderPlaced = false
		return nil, mapUpstreamError(err)
	}

	order.Table = session.Table
	utils.InfoLogger.Printf("Order %d submitted for session %s (table %d, total %.2f)",
		order.ID, session.ID, session.TableID, order.TotalAmount)
	return order, nil
}

// mapUpstreamError memetakan kegagalan kolaborator ke taksonomi error
func mapUpstreamError(err error) error {
	switch {
	case errors.Is(err, ErrMenuNotFound):
		return ErrInvalidCart
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrUpstreamTimeout
	case errors.Is(err, ErrInvalidCart),
		errors.Is(err, ErrUpstreamTimeout),
		errors.Is(err, ErrUpstreamFailure):
		return err
	default:
		return ErrUpstreamFailure
	}
}
