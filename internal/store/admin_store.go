package store

import (
	"context"
	"errors"
	"time"

	"newsauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminStore struct{ db *gorm.DB }

func (s *Store) Admins() *AdminStore { return &AdminStore{db: s.DB} }

func (as *AdminStore) Create(ctx context.Context, a *domain.Admin) error {
	if a.AdminID == uuid.Nil {
		a.AdminID = uuid.New()
	}
	return as.db.WithContext(ctx).Create(a).Error
}

// GetActiveByLogin resolves a login identifier against email, phone, or
// username, filtered to active accounts. The caller treats a miss the same
// as a bad password.
func (as *AdminStore) GetActiveByLogin(ctx context.Context, login string) (*domain.Admin, error) {
	var a domain.Admin
	err := as.db.WithContext(ctx).
		First(&a, "(email = ? OR phone = ? OR username = ?) AND status = ?",
			login, login, login, domain.AdminStatusActive).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetActiveByID is the identity re-check issued on every gated request, so
// suspension takes effect immediately rather than at next login.
func (as *AdminStore) GetActiveByID(ctx context.Context, id domain.AdminID) (*domain.Admin, error) {
	var a domain.Admin
	err := as.db.WithContext(ctx).
		First(&a, "admin_id = ? AND status = ?", id, domain.AdminStatusActive).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (as *AdminStore) UpdateLastLogin(ctx context.Context, id domain.AdminID, at time.Time) error {
	return as.db.WithContext(ctx).Model(&domain.Admin{}).
		Where("admin_id = ?", id).
		Update("last_login", at).Error
}

func (as *AdminStore) SetStatus(ctx context.Context, id domain.AdminID, status string) error {
	return as.db.WithContext(ctx).Model(&domain.Admin{}).
		Where("admin_id = ?", id).
		Update("status", status).Error
}
