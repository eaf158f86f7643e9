package services

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/qr-table-order/models"
)

func TestSweepMarksOverdueSessions(t *testing.T) {
	db := setupTestDB(t)
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(db)
	svc := NewSessionService(store, clock, DefaultSessionConfig())
	sweeper := NewSessionSweeper(store, clock)

	table := seedTable(t, db, "T301")
	session, err := svc.CreateSession(table.ID)
	require.NoError(t, err)

	clock.Advance(svc.Cfg.TTL + time.Minute)

	// Sebelum sweep: status fisik masih active, tapi view sudah
	// menerapkan expiry secara lazy
	alive, err := store.ListAlive(clock.Now())
	require.NoError(t, err)
	assert.Empty(t, alive)

	expired, err := store.ListExpired(clock.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, session.ID, expired[0].ID)

	sweeper.sweep()

	var reloaded models.TableSession
	require.NoError(t, db.Where("id = ?", session.ID).First(&reloaded).Error)
	assert.Equal(t, models.SessionExpired, reloaded.Status)

	// Sweep berulang idempotent
	sweeper.sweep()
	require.NoError(t, db.Where("id = ?", session.ID).First(&reloaded).Error)
	assert.Equal(t, models.SessionExpired, reloaded.Status)
}

// Sesi order_placed sudah terkunci dan tidak boleh disapu
func TestSweepNeverTouchesOrderPlacedSessions(t *testing.T) {
	db := setupTestDB(t)
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(db)
	svc := NewSessionService(store, clock, DefaultSessionConfig())
	sweeper := NewSessionSweeper(store, clock)

	table := seedTable(t, db, "T302")
	session, err := svc.CreateSession(table.ID)
	require.NoError(t, err)

	// Tandai order placed secara langsung
	var stored models.TableSession
	require.NoError(t, db.Where("id = ?", session.ID).First(&stored).Error)
	stored.Status = models.SessionOrderPlaced
	stored.OrderPlaced = true
	require.NoError(t, db.Save(&stored).Error)

	clock.Advance(svc.Cfg.TTL + time.Hour)
	sweeper.sweep()

	var reloaded models.TableSession
	require.NoError(t, db.Where("id = ?", session.ID).First(&reloaded).Error)
	assert.Equal(t, models.SessionOrderPlaced, reloaded.Status)

	// Masih muncul sebagai "hidup" untuk dashboard
	alive, err := store.ListAlive(clock.Now())
	require.NoError(t, err)
	require.Len(t, alive, 1)
}

// Sweep yang kalah balapan dari submit tidak boleh membuang mutex sesi:
// mutex baru untuk sesi yang masih hidup berarti dua mutator bisa jalan
// bersamaan dan status terminal bisa tertimpa balik.
func TestSweepLosingRaceKeepsSessionLock(t *testing.T) {
	db := setupTestDB(t)
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(db)
	svc := NewSessionService(store, clock, DefaultSessionConfig())

	table := seedTable(t, db, "T303")
	session, err := svc.CreateSession(table.ID)
	require.NoError(t, err)

	clock.Advance(svc.Cfg.TTL + time.Minute)

	// Pegang lock sesi seperti submit yang sedang berjalan; sweep akan
	// memilih sesi ini sebagai overdue lalu menunggu lock
	unlock := store.LockSession(session.ID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, sweepErr := store.MarkExpiredBefore(clock.Now())
		assert.NoError(t, sweepErr)
	}()

	// Beri waktu sweep mencapai antrian lock, lalu "submit menang":
	// sesi terkunci di order_placed sebelum lock dilepas
	time.Sleep(200 * time.Millisecond)
	var current models.TableSession
	require.NoError(t, db.Where("id = ?", session.ID).First(&current).Error)
	current.Status = models.SessionOrderPlaced
	current.OrderPlaced = true
	require.NoError(t, db.Save(&current).Error)

	select {
	case <-done:
		t.Fatal("sweep must wait for the session lock, not bypass it")
	default:
	}

	unlock()
	<-done

	// Sweep melewati sesi order_placed dan mutex-nya tetap ada
	var reloaded models.TableSession
	require.NoError(t, db.Where("id = ?", session.ID).First(&reloaded).Error)
	assert.Equal(t, models.SessionOrderPlaced, reloaded.Status)
	_, ok := store.sessionLocks.Load(session.ID)
	assert.True(t, ok, "lock entry for a live session must survive the sweep")

	// Renewal dan terminasi yang berebut setelahnya tetap terserialisasi:
	// apapun urutannya, ended tidak pernah kembali ke order_placed
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		svc.ValidateSession(session.Token)
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, svc.EndSession(session.ID))
	}()
	wg.Wait()

	require.NoError(t, db.Where("id = ?", session.ID).First(&reloaded).Error)
	assert.Equal(t, models.SessionEnded, reloaded.Status,
		"terminal ended must never revert")
}
