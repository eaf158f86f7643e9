package services

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yeremiapane/qr-table-order/utils"
)

// SessionSweeper menandai sesi yang lewat TTL secara periodik. Ini murni
// housekeeping: setiap validasi dan setiap pembacaan dashboard sudah
// mengevaluasi expiry secara lazy, jadi cadence sweep tidak berpengaruh
// pada kebenaran, hanya pada seberapa cepat bookkeeping terlihat.
type SessionSweeper struct {
	Store    *SessionStore
	Clock    clockwork.Clock
	Interval time.Duration
	StopChan chan struct{}
}

func NewSessionSweeper(store *SessionStore, clock clockwork.Clock) *SessionSweeper {
	return &SessionSweeper{
		Store:    store,
		Clock:    clock,
		Interval: 60 * time.Second,
		StopChan: make(chan struct{}),
	}
}

func (sw *SessionSweeper) Start() {
	go func() {
		ticker := sw.Clock.NewTicker(sw.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				sw.sweep()
			case <-sw.StopChan:
				return
			}
		}
	}()
}

func (sw *SessionSweeper) Stop() {
	close(sw.StopChan)
}

func (sw *SessionSweeper) sweep() {
	marked, err := sw.Store.MarkExpiredBefore(sw.Clock.Now())
	if err != nil {
		utils.ErrorLogger.Errorf("Session sweep failed: %v", err)
		return
	}
	if len(marked) > 0 {
		utils.InfoLogger.Printf("Session sweep marked %d session(s) expired", len(marked))
	}
}
