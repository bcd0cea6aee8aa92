package store

import (
	"context"
	"errors"
	"time"

	"newsauth/internal/domain"

	"gorm.io/gorm"
)

type SessionStore struct{ db *gorm.DB }

func (s *Store) Sessions() *SessionStore { return &SessionStore{s.DB} }

// Create inserts a new session row. The composite primary key makes a
// duplicate (id, namespace) pair fail the insert instead of silently
// overwriting; callers retry with a fresh id.
func (ss *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	if err := ss.db.WithContext(ctx).Create(sess).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrSessionExists
		}
		return err
	}
	return nil
}

// Get returns the session for (id, namespace), or (nil, nil) when no such
// row exists. Expiry is not checked here; the manager does that.
func (ss *SessionStore) Get(ctx context.Context, id string, ns domain.Namespace) (*domain.Session, error) {
	var sess domain.Session
	err := ss.db.WithContext(ctx).First(&sess, "id = ? AND namespace = ?", id, ns).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Touch updates activity and expiry in a single statement. GREATEST keeps
// expires_at monotonically non-decreasing even when two requests race.
func (ss *SessionStore) Touch(ctx context.Context, id string, ns domain.Namespace, activity, expiry time.Time) error {
	return ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND namespace = ?", id, ns).
		Updates(map[string]interface{}{
			"last_activity_at": activity,
			"expires_at":       gorm.Expr("GREATEST(expires_at, ?)", expiry),
		}).Error
}

func (ss *SessionStore) SetCSRFHash(ctx context.Context, id string, ns domain.Namespace, hash []byte) error {
	return ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND namespace = ?", id, ns).
		Update("csrf_hash", hash).Error
}

// BindAdmin attaches an identity to a public session. Admin-namespace rows
// are excluded by the WHERE clause; identity is set at creation there.
func (ss *SessionStore) BindAdmin(ctx context.Context, id string, ns domain.Namespace, adminID domain.AdminID) error {
	return ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND namespace = ? AND namespace <> ?", id, ns, domain.NamespaceAdmin).
		Update("admin_id", adminID).Error
}

// Delete is idempotent: removing an absent row is not an error.
func (ss *SessionStore) Delete(ctx context.Context, id string, ns domain.Namespace) error {
	return ss.db.WithContext(ctx).
		Where("id = ? AND namespace = ?", id, ns).
		Delete(&domain.Session{}).Error
}

// DeleteExpired reaps every session whose expiry has passed and returns how
// many rows went away. Safe to run concurrently with lazy expiry.
func (ss *SessionStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := ss.db.WithContext(ctx).
		Where("expires_at <= ?", cutoff).
		Delete(&domain.Session{})
	return tx.RowsAffected, tx.Error
}
