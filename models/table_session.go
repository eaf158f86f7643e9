package models

import "time"

// Status sesi meja. Transisi bersifat monoton: active boleh menjadi
// order_placed, expired, atau ended; tidak ada jalan kembali ke active.
const (
	SessionActive      = "active"
	SessionOrderPlaced = "order_placed"
	SessionExpired     = "expired"
	SessionEnded       = "ended"
)

type TableSession struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TableID        uint      `gorm:"not null;index" json:"table_id"`
	Table          Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table"`
	Token          string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	Status         string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	OrderPlaced    bool      `gorm:"not null;default:false" json:"order_placed"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	LastAccessedAt time.Time `gorm:"not null" json:"last_accessed_at"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expires_at"`
}

// IsTerminal -> true jika sesi sudah tidak bisa kembali aktif
func (s *TableSession) IsTerminal() bool {
	return s.Status == SessionExpired || s.Status == SessionEnded
}

// ExpiredAt -> evaluasi expiry secara lazy terhadap waktu sekarang.
// Sesi order_placed sudah "terkunci" dan tidak pernah kadaluarsa.
func (s *TableSession) ExpiredAt(now time.Time) bool {
	if s.Status != SessionActive {
		return s.Status == SessionExpired
	}
	return !now.Before(s.ExpiresAt)
}
