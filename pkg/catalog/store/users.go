package store

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *GORMStore) CreateUser(ctx context.Context, user *models.User) (string, error) {
	user.CreatedAt = time.Now()
	return createWithID(s.db, ctx, user, func(u *models.User, id string) { u.ID = id }, user.ID, models.ErrDuplicateUser)
}

func (s *GORMStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}

// GetUserByKey resolves a user from their per-user access key.
func (s *GORMStore) GetUserByKey(ctx context.Context, userKey string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "user_key", userKey, models.ErrUserNotFound)
}

func (s *GORMStore) GetUserByName(ctx context.Context, tenantID, username string) (*models.User, error) {
	return getByFields[models.User](s.db, ctx, map[string]any{
		"tenant_id": tenantID,
		"username":  username,
	}, models.ErrUserNotFound)
}

func (s *GORMStore) ListTenantUsers(ctx context.Context, tenantID string) ([]*models.User, error) {
	return listByFields[models.User](s.db, ctx, map[string]any{"tenant_id": tenantID})
}

// UpdateUserRole replaces the user's org positions and admin flag.
func (s *GORMStore) UpdateUserRole(ctx context.Context, user *models.User) error {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("id = ?", user.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrUserNotFound)
	}

	// Select forces the update even when the new values are zero-valued,
	// and keeps the JSON serializer applied to OrgPositions.
	return s.db.WithContext(ctx).
		Model(&existing).
		Select("Admin", "OrgPositions").
		Updates(user).Error
}

func (s *GORMStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *GORMStore) DeleteUser(ctx context.Context, id string) error {
	return deleteByFields[models.User](s.db, ctx, map[string]any{"id": id}, models.ErrUserNotFound)
}

// ValidateCredentials verifies a username/password pair within a tenant.
func (s *GORMStore) ValidateCredentials(ctx context.Context, tenantID, username, password string) (*models.User, error) {
	user, err := s.GetUserByName(ctx, tenantID, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}
