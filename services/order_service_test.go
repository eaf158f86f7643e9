package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
)

// failingKitchen mensimulasikan subsistem dapur yang gagal/timeout
type failingKitchen struct {
	err error
}

func (fk *failingKitchen) CreateOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return fk.err
}

type orderFixture struct {
	sessions *SessionService
	orders   *OrderService
	clock    clockwork.FakeClock
	table    models.Table
	menu     models.Menu
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := setupTestDB(t)
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(db)

	return &orderFixture{
		sessions: NewSessionService(store, clock, DefaultSessionConfig()),
		orders:   NewOrderService(store, NewGormCatalog(db), NewGormKitchen(), clock),
		clock:    clock,
		table:    seedTable(t, db, "T201"),
		menu:     seedMenu(t, db, "Burger", 5.0),
	}
}

func TestSubmitOrderComputesTotalServerSide(t *testing.T) {
	fx := newOrderFixture(t)
	session, err := fx.sessions.CreateSession(fx.table.ID)
	require.NoError(t, err)

	order, err := fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 2}}, "no onions")
	require.NoError(t, err)

	// Harga dari katalog: 2 x 5.0 = 10.0
	assert.InDelta(t, 10.0, order.TotalAmount, 0.001)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, "Burger", order.OrderItems[0].MenuName)
	assert.InDelta(t, 5.0, order.OrderItems[0].Price, 0.001)
	assert.Equal(t, "no onions", order.Notes)
	assert.Equal(t, models.OrderReceived, order.Status)

	// Sesi terkunci di order_placed
	validated, err := fx.sessions.ValidateSession(session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.SessionOrderPlaced, validated.Status)
	assert.True(t, validated.OrderPlaced)
}

func TestSubmitOrderIdempotent(t *testing.T) {
	fx := newOrderFixture(t)
	session, err := fx.sessions.CreateSession(fx.table.ID)
	require.NoError(t, err)

	_, err = fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 2}}, "")
	require.NoError(t, err)

	// Submit kedua (termasuk retry jaringan) tidak pernah membuat order kedua
	_, err = fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 2}}, "")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	var count int64
	fx.orders.Store.DB.Model(&models.Order{}).Where("session_id = ?", session.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSubmitOrderInvalidCart(t *testing.T) {
	fx := newOrderFixture(t)
	session, err := fx.sessions.CreateSession(fx.table.ID)
	require.NoError(t, err)

	// Cart kosong
	_, err = fx.orders.SubmitOrder(context.Background(), session.Token, nil, "")
	assert.ErrorIs(t, err, ErrInvalidCart)

	// Quantity < 1
	_, err = fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 0}}, "")
	assert.ErrorIs(t, err, ErrInvalidCart)

	// Item tidak ada di katalog
	_, err = fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: 9999, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrInvalidCart)

	// Cart tidak valid tidak mengubah status sesi
	validated, err := fx.sessions.ValidateSession(session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, validated.Status)
}

func TestSubmitOrderSizeVariantPrice(t *testing.T) {
	fx := newOrderFixture(t)
	size := models.MenuSize{MenuID: fx.menu.ID, Name: "Large", Price: 7.5}
	require.NoError(t, fx.orders.Store.DB.Create(&size).Error)

	session, err := fx.sessions.CreateSession(fx.table.ID)
	require.NoError(t, err)

	order, err := fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, SizeID: &size.ID, Quantity: 1}}, "")
	require.NoError(t, err)
	assert.InDelta(t, 7.5, order.TotalAmount, 0.001)
	assert.Equal(t, "Large", order.OrderItems[0].SizeName)

	// Varian milik menu lain ditolak
	other := seedMenu(t, fx.orders.Store.DB, "Pizza", 9.0)
	session2Table := seedTable(t, fx.orders.Store.DB, "T202")
	session2, err := fx.sessions.CreateSession(session2Table.ID)
	require.NoError(t, err)

	_, err = fx.orders.SubmitOrder(context.Background(), session2.Token,
		[]CartItem{{MenuID: other.ID, SizeID: &size.ID, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrInvalidCart)
}

func TestSubmitOrderExpiredSession(t *testing.T) {
	fx := newOrderFixture(t)
	session, err := fx.sessions.CreateSession(fx.table.ID)
	require.NoError(t, err)

	fx.clock.Advance(fx.sessions.Cfg.TTL + time.Minute)

	_, err = fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrSessionClosed)

	var count int64
	fx.orders.Store.DB.Model(&models.Order{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestSubmitOrderEndedSession(t *testing.T) {
	fx := newOrderFixture(t)
	session, err := fx.sessions.CreateSession(fx.table.ID)
	require.NoError(t, err)
	require.NoError(t, fx.sessions.EndSession(session.ID))

	_, err = fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSubmitOrderUnknownToken(t *testing.T) {
	fx := newOrderFixture(t)
	_, err := fx.orders.SubmitOrder(context.Background(), "bukan-token",
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// Kegagalan dapur tidak boleh meninggalkan sesi di order_placed tanpa order
func TestKitchenFailureRollsBackSession(t *testing.T) {
	fx := newOrderFixture(t)
	session, err := fx.sessions.CreateSession(fx.table.ID)
	require.NoError(t, err)

	fx.orders.Kitchen = &failingKitchen{err: errors.New("kitchen printer on fire")}
	_, err = fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrUpstreamFailure)

	// Sesi tetap active di DB, tidak ada order
	var reloaded models.TableSession
	require.NoError(t, fx.orders.Store.DB.Where("id = ?", session.ID).First(&reloaded).Error)
	assert.Equal(t, models.SessionActive, reloaded.Status)
	assert.False(t, reloaded.OrderPlaced)

	var count int64
	fx.orders.Store.DB.Model(&models.Order{}).Count(&count)
	assert.EqualValues(t, 0, count)

	// Retry dengan token yang sama harus berhasil setelah dapur pulih
	fx.orders.Kitchen = NewGormKitchen()
	order, err := fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 1}}, "")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, order.TotalAmount, 0.001)
}

func TestKitchenTimeoutMapsToUpstreamTimeout(t *testing.T) {
	fx := newOrderFixture(t)
	session, err := fx.sessions.CreateSession(fx.table.ID)
	require.NoError(t, err)

	fx.orders.Kitchen = &failingKitchen{err: context.DeadlineExceeded}
	_, err = fx.orders.SubmitOrder(context.Background(), session.Token,
		[]CartItem{{MenuID: fx.menu.ID, Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrUpstreamTimeout)

	// Gagal tertutup: sesi kembali active, klien boleh retry
	var reloaded models.TableSession
	require.NoError(t, fx.orders.Store.DB.Where("id = ?", session.ID).First(&reloaded).Error)
	assert.Equal(t, models.SessionActive, reloaded.Status)
}
