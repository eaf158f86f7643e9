package services

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/utils"
)

// SessionConfig mengatur umur sesi meja.
type SessionConfig struct {
	// TTL awal saat sesi dibuat
	TTL time.Duration
	// Perpanjangan setiap kali token divalidasi
	RenewalWindow time.Duration
	// Batas total umur sesi dihitung dari created_at; renewal tidak
	// boleh melewati batas ini supaya retensi resource terikat
	MaxLifetime time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:           30 * time.Minute,
		RenewalWindow: 30 * time.Minute,
		MaxLifetime:   2 * time.Hour,
	}
}

// SessionConfigFromEnv membaca SESSION_TTL_MINUTES, SESSION_RENEWAL_MINUTES
// dan SESSION_MAX_LIFETIME_MINUTES, fallback ke default
func SessionConfigFromEnv() SessionConfig {
	cfg := DefaultSessionConfig()
	if v := envMinutes("SESSION_TTL_MINUTES"); v > 0 {
		cfg.TTL = v
	}
	if v := envMinutes("SESSION_RENEWAL_MINUTES"); v > 0 {
		cfg.RenewalWindow = v
	}
	if v := envMinutes("SESSION_MAX_LIFETIME_MINUTES"); v > 0 {
		cfg.MaxLifetime = v
	}
	return cfg
}

func envMinutes(key string) time.Duration {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Minute
}

// SessionService mengelola lifecycle sesi meja: create, validate/renew,
// expiry lazy, dan terminasi oleh staff.
type SessionService struct {
	Store *SessionStore
	Clock clockwork.Clock
	Cfg   SessionConfig
}

func NewSessionService(store *SessionStore, clock clockwork.Clock, cfg SessionConfig) *SessionService {
	return &SessionService{Store: store, Clock: clock, Cfg: cfg}
}

// CreateSession membuat sesi untuk satu meja, atau mengembalikan sesi
// aktif yang sudah ada (idempotent per meja). Serialisasi per table id
// menjamin tidak pernah ada dua sesi aktif untuk meja yang sama.
func (ss *SessionService) CreateSession(tableID uint) (*models.TableSession, error) {
	unlock := ss.Store.LockTable(tableID)
	defer unlock()

	var table models.Table
	if err := ss.Store.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableUnavailable
		}
		return nil, err
	}

	now := ss.Clock.Now()

	// Sudah ada sesi aktif? Kembalikan token yang sama, jangan buat duplikat
	if existing, err := ss.Store.FindActiveByTable(tableID, now); err == nil {
		return existing, nil
	}

	if table.Status != models.TableAvailable {
		return nil, ErrTableUnavailable
	}

	token, err := utils.GenerateSessionToken()
	if err != nil {
		// Fatal untuk subsistem: tanpa entropi tidak ada sesi yang aman
		return nil, err
	}

	session := &models.TableSession{
		ID:             uuid.NewString(),
		TableID:        tableID,
		Token:          token,
		Status:         models.SessionActive,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(ss.Cfg.TTL),
	}

	err = ss.Store.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		table.Status = models.TableOccupied
		return tx.Save(&table).Error
	})
	if err != nil {
		return nil, err
	}

	session.Table = table
	utils.InfoLogger.Printf("Session %s created for table %s", session.ID, table.TableNumber)
	return session, nil
}

// ValidateSession memvalidasi token dan memperbarui sesi yang masih aktif.
// Token tidak dikenal -> ErrSessionNotFound; token milik sesi yang sudah
// kadaluarsa/diakhiri -> ErrSessionExpired, supaya klien bisa membedakan
// "tidak pernah ada" dari "kehabisan waktu".
func (ss *SessionService) ValidateSession(token string) (*models.TableSession, error) {
	found, err := ss.Store.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	unlock := ss.Store.LockSession(found.ID)
	defer unlock()

	// Muat ulang di bawah lock; mutasi lain bisa menang di antara
	// pencarian token dan pengambilan lock
	session, err := ss.Store.FindByID(found.ID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	now := ss.Clock.Now()

	switch session.Status {
	case models.SessionExpired, models.SessionEnded:
		return session, ErrSessionExpired

	case models.SessionOrderPlaced:
		// Masih hidup (dapur mengerjakan order); tidak diperpanjang
		// karena sesi sudah terkunci dan tidak bisa kadaluarsa lagi
		session.LastAccessedAt = now
		if err := ss.Store.Save(session); err != nil {
			return nil, err
		}
		return session, nil

	default: // active
		if !now.Before(session.ExpiresAt) {
			// Expiry lazy: tandai saat terdeteksi, idempotent
			session.Status = models.SessionExpired
			if err := ss.Store.Save(session); err != nil {
				return nil, err
			}
			return session, ErrSessionExpired
		}

		session.LastAccessedAt = now
		renewed := now.Add(ss.Cfg.RenewalWindow)
		if limit := session.CreatedAt.Add(ss.Cfg.MaxLifetime); renewed.After(limit) {
			renewed = limit
		}
		if renewed.After(session.ExpiresAt) {
			session.ExpiresAt = renewed
		}
		if err := ss.Store.Save(session); err != nil {
			return nil, err
		}
		return session, nil
	}
}

// EndSession adalah terminasi oleh staff: terminal, idempotent, dan
// langsung membebaskan meja tanpa peduli status order.
func (ss *SessionService) EndSession(sessionID string) error {
	found, err := ss.Store.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Idempotent: mengakhiri sesi yang tidak ada = no-op sukses
			return nil
		}
		return err
	}

	unlock := ss.Store.LockSession(found.ID)
	defer unlock()

	session, err := ss.Store.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if session.Status == models.SessionEnded {
		return nil
	}

	err = ss.Store.DB.Transaction(func(tx *gorm.DB) error {
		session.Status = models.SessionEnded
		if err := tx.Save(session).Error; err != nil {
			return err
		}

		var table models.Table
		if err := tx.First(&table, session.TableID).Error; err != nil {
			return err
		}
		table.Status = models.TableAvailable
		return tx.Save(&table).Error
	})
	if err != nil {
		return err
	}

	// Sesi sudah terminal di bawah lock ini, baru lock-nya boleh dibuang
	ss.Store.ForgetSession(session.ID)
	utils.InfoLogger.Printf("Session %s ended by staff, table %d freed", session.ID, session.TableID)
	return nil
}
