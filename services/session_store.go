package services

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
)

// SessionStore adalah penyimpanan sesi meja di atas gorm plus lock
// per-key. Mutasi satu sesi diserialisasi lewat lock per session id,
// pembuatan sesi diserialisasi per table id, jadi meja yang tidak
// berhubungan tidak pernah saling menunggu.
type SessionStore struct {
	DB *gorm.DB

	tableLocks   sync.Map // uint -> *sync.Mutex
	sessionLocks sync.Map // string -> *sync.Mutex
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{DB: db}
}

func lockKey(m *sync.Map, key interface{}) func() {
	v, _ := m.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// LockTable menahan lock pembuatan sesi untuk satu meja, return fungsi unlock
func (s *SessionStore) LockTable(tableID uint) func() {
	return lockKey(&s.tableLocks, tableID)
}

// LockSession menahan lock mutasi untuk satu sesi, return fungsi unlock
func (s *SessionStore) LockSession(sessionID string) func() {
	return lockKey(&s.sessionLocks, sessionID)
}

// ForgetSession membuang lock milik sesi yang sudah terminal
func (s *SessionStore) ForgetSession(sessionID string) {
	s.sessionLocks.Delete(sessionID)
}

func (s *SessionStore) Create(session *models.TableSession) error {
	return s.DB.Create(session).Error
}

func (s *SessionStore) Save(session *models.TableSession) error {
	return s.DB.Save(session).Error
}

func (s *SessionStore) FindByID(id string) (*models.TableSession, error) {
	var session models.TableSession
	if err := s.DB.Preload("Table").Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) FindByToken(token string) (*models.TableSession, error) {
	var session models.TableSession
	if err := s.DB.Preload("Table").Where("token = ?", token).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindActiveByTable mencari sesi aktif untuk satu meja. Expiry dievaluasi
// lazy lewat predikat expires_at, jadi sesi yang lewat TTL tidak pernah
// dianggap aktif walaupun sweep belum jalan.
func (s *SessionStore) FindActiveByTable(tableID uint, now time.Time) (*models.TableSession, error) {
	var session models.TableSession
	err := s.DB.Preload("Table").
		Where("table_id = ? AND status = ? AND expires_at > ?", tableID, models.SessionActive, now).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListAlive -> sesi yang masih "hidup" untuk dashboard staff: active yang
// belum lewat TTL plus order_placed (dapur masih mengerjakan order).
func (s *SessionStore) ListAlive(now time.Time) ([]models.TableSession, error) {
	var sessions []models.TableSession
	err := s.DB.Preload("Table").
		Where("(status = ? AND expires_at > ?) OR status = ?",
			models.SessionActive, now, models.SessionOrderPlaced).
		Order("created_at asc").
		Find(&sessions).Error
	return sessions, err
}

// ListExpired -> sesi kadaluarsa, termasuk yang belum sempat ditandai sweep
func (s *SessionStore) ListExpired(now time.Time) ([]models.TableSession, error) {
	var sessions []models.TableSession
	err := s.DB.Preload("Table").
		Where("status = ? OR (status = ? AND expires_at <= ?)",
			models.SessionExpired, models.SessionActive, now).
		Order("expires_at asc").
		Find(&sessions).Error
	return sessions, err
}

// MarkExpiredBefore menandai semua sesi active yang sudah lewat TTL sebagai
// expired. Dipakai oleh sweep; murni housekeeping karena semua pembacaan
// sudah menerapkan expiry secara lazy.
func (s *SessionStore) MarkExpiredBefore(now time.Time) ([]models.TableSession, error) {
	var overdue []models.TableSession
	err := s.DB.
		Where("status = ? AND expires_at <= ?", models.SessionActive, now).
		Find(&overdue).Error
	if err != nil {
		return nil, err
	}

	var marked []models.TableSession
	for i := range overdue {
		unlock := s.LockSession(overdue[i].ID)
		// Re-check di bawah lock: submit yang menang duluan sudah
		// mengunci sesi di order_placed dan tidak boleh disapu
		terminal := false
		var current models.TableSession
		if err := s.DB.Where("id = ?", overdue[i].ID).First(&current).Error; err == nil &&
			current.Status == models.SessionActive && !now.Before(current.ExpiresAt) {
			current.Status = models.SessionExpired
			s.DB.Save(&current)
			marked = append(marked, current)
			terminal = true
		}
		unlock()
		// Lock hanya boleh dibuang kalau sesi benar-benar terminal di
		// bawah lock yang sama; membuang lock sesi yang masih hidup
		// membuat mutator berikutnya dapat mutex baru dan serialisasi
		// per-sesi bocor
		if terminal {
			s.ForgetSession(overdue[i].ID)
		}
	}
	return marked, nil
}
