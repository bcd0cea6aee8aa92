package domain

import "time"

// Session is one live session row. The ID is the opaque cookie handle; the
// composite primary key with Namespace keeps the admin and public partitions
// isolated even if two random IDs ever collided across them.
type Session struct {
	ID             string    `gorm:"type:text;primaryKey" db:"id"`
	Namespace      Namespace `gorm:"type:text;primaryKey" db:"namespace"`
	AdminID        *AdminID  `gorm:"type:uuid;index" db:"admin_id"`
	CreatedAt      time.Time `gorm:"not null" db:"created_at"`
	LastActivityAt time.Time `gorm:"not null" db:"last_activity_at"`
	ExpiresAt      time.Time `gorm:"not null;index" db:"expires_at"`
	CSRFHash       []byte    `gorm:"type:bytea" db:"csrf_hash"`
	IP             string    `gorm:"type:inet" db:"ip"`
	UserAgent      string    `gorm:"type:text" db:"user_agent"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *Session) Anonymous() bool { return s.AdminID == nil }
