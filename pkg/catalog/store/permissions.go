package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

// ============================================
// PERMISSION OPERATIONS
// ============================================

// UpsertPermission creates a grant or replaces the action mask of an
// existing grant for the same directory and user.
func (s *GORMStore) UpsertPermission(ctx context.Context, perm *models.Permission) (string, error) {
	var existing models.Permission
	err := s.db.WithContext(ctx).
		Where("directory_id = ? AND user_id = ?", perm.DirectoryID, perm.UserID).
		First(&existing).Error

	if err == nil {
		update := s.db.WithContext(ctx).
			Model(&existing).
			Select("Action", "GrantedBy", "Acquired").
			Updates(perm)
		return existing.ID, update.Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	perm.CreatedAt = time.Now()
	return createWithID(s.db, ctx, perm, func(p *models.Permission, id string) { p.ID = id }, perm.ID, models.ErrDuplicatePermission)
}

func (s *GORMStore) GetPermission(ctx context.Context, directoryID, userID string) (*models.Permission, error) {
	return getByFields[models.Permission](s.db, ctx, map[string]any{
		"directory_id": directoryID,
		"user_id":      userID,
	}, models.ErrPermissionNotFound)
}

// ListDirectoryPermissions returns every grant on a directory.
func (s *GORMStore) ListDirectoryPermissions(ctx context.Context, directoryID string) ([]*models.Permission, error) {
	return listByFields[models.Permission](s.db, ctx, map[string]any{"directory_id": directoryID})
}

// ListUserPermissions returns every grant a user holds in a tenant.
func (s *GORMStore) ListUserPermissions(ctx context.Context, tenantID, userID string) ([]*models.Permission, error) {
	return listByFields[models.Permission](s.db, ctx, map[string]any{
		"tenant_id": tenantID,
		"user_id":   userID,
	})
}

// DeletePermission removes a user's grant on a directory.
func (s *GORMStore) DeletePermission(ctx context.Context, directoryID, userID string) error {
	return deleteByFields[models.Permission](s.db, ctx, map[string]any{
		"directory_id": directoryID,
		"user_id":      userID,
	}, models.ErrPermissionNotFound)
}

// DeleteAcquiredPermissions removes the acquired grants of an admin across
// a tenant, used when the admin's org positions change.
func (s *GORMStore) DeleteAcquiredPermissions(ctx context.Context, tenantID, userID string) error {
	return s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND acquired = ?", tenantID, userID, true).
		Delete(&models.Permission{}).Error
}
