package domain

import "time"

const (
	AdminStatusActive    = "active"
	AdminStatusSuspended = "suspended"
)

type Admin struct {
	AdminID      AdminID    `gorm:"type:uuid;primaryKey" db:"admin_id" json:"admin_id"`
	FirstName    string     `gorm:"type:text" db:"first_name" json:"first_name"`
	LastName     string     `gorm:"type:text" db:"last_name" json:"last_name"`
	Email        string     `gorm:"type:citext;uniqueIndex:ux_admins_email" db:"email" json:"email"`
	Phone        string     `gorm:"type:text" db:"phone" json:"phone"`
	Username     string     `gorm:"type:citext;uniqueIndex:ux_admins_username" db:"username" json:"username"`
	Role         string     `gorm:"type:text;not null" db:"role" json:"role"`
	Permissions  []string   `gorm:"serializer:json;type:jsonb" db:"permissions" json:"permissions"`
	PasswordHash string     `gorm:"type:text;not null" db:"password_hash" json:"-"`
	Status       string     `gorm:"type:text;not null;default:active" db:"status" json:"status"`
	LastLogin    *time.Time `db:"last_login" json:"last_login"`
	CreatedAt    time.Time  `gorm:"not null" db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" db:"updated_at" json:"updated_at"`
}

func (Admin) TableName() string { return "admins" }

// Identity is what the auth gate hands downstream once a session resolves:
// the bound identity plus its authorization attributes. Permission checks
// themselves happen in route handlers, not in the gate.
type Identity struct {
	ID          AdminID  `json:"identity_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
