package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

// ============================================
// DIRECTORY OPERATIONS
// ============================================

// deletedPathKey replaces a soft-deleted row's path key so the unique
// index stops reserving the path and it can be created again.
func deletedPathKey(id string) string {
	return "deleted:" + id
}

func (s *GORMStore) CreateDirectory(ctx context.Context, dir *models.Directory) (string, error) {
	dir.CreatedAt = time.Now()
	dir.PathKey = models.PathKey(dir.Path)
	return createWithID(s.db, ctx, dir, func(d *models.Directory, id string) { d.ID = id }, dir.ID, models.ErrDuplicateDirectory)
}

// GetDirectory resolves a live directory by tenant and path. Paths fold
// case, so "/Data" and "/data" resolve the same row.
func (s *GORMStore) GetDirectory(ctx context.Context, tenantID, path string) (*models.Directory, error) {
	return getByFields[models.Directory](s.db, ctx, map[string]any{
		"tenant_id": tenantID,
		"path_key":  models.PathKey(path),
		"deleted":   false,
	}, models.ErrDirectoryNotFound, "Metadata", "Permissions")
}

func (s *GORMStore) GetDirectoryByID(ctx context.Context, id string) (*models.Directory, error) {
	return getByField[models.Directory](s.db, ctx, "id", id, models.ErrDirectoryNotFound, "Metadata", "Permissions")
}

// ListChildDirectories returns the live directories whose parent is the
// given path.
func (s *GORMStore) ListChildDirectories(ctx context.Context, tenantID, parent string) ([]*models.Directory, error) {
	var dirs []*models.Directory
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(parent) = ? AND deleted = ?", tenantID, models.PathKey(parent), false).
		Order("path").
		Find(&dirs).Error
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// CountChildDirectories counts the live directories directly beneath a path.
func (s *GORMStore) CountChildDirectories(ctx context.Context, tenantID, parent string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Directory{}).
		Where("tenant_id = ? AND LOWER(parent) = ? AND deleted = ?", tenantID, models.PathKey(parent), false).
		Count(&count).Error
	return count, err
}

// ListDirectoriesByPatterns returns the live directories whose path matches
// any of the LIKE patterns, for hierarchical prefix queries.
func (s *GORMStore) ListDirectoriesByPatterns(ctx context.Context, tenantID string, patterns []string, preloads ...string) ([]*models.Directory, error) {
	if len(patterns) == 0 {
		return []*models.Directory{}, nil
	}
	q := s.db.WithContext(ctx).Where("tenant_id = ? AND deleted = ?", tenantID, false)
	for _, p := range preloads {
		q = q.Preload(p)
	}

	like := s.db.Session(&gorm.Session{NewDB: true})
	for i, pattern := range patterns {
		if i == 0 {
			like = like.Where("path_key LIKE ?", models.PathKey(pattern))
		} else {
			like = like.Or("path_key LIKE ?", models.PathKey(pattern))
		}
	}

	var dirs []*models.Directory
	if err := q.Where(like).Order("path").Find(&dirs).Error; err != nil {
		return nil, err
	}
	return dirs, nil
}

// UpdateDirectoryRuleMode sets the rule enforcement mode of a directory.
func (s *GORMStore) UpdateDirectoryRuleMode(ctx context.Context, id string, mode models.RuleMode) error {
	result := s.db.WithContext(ctx).
		Model(&models.Directory{}).
		Where("id = ?", id).
		Update("rule_mode", mode)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrDirectoryNotFound
	}
	return nil
}

// MarkDirectoryDeleted soft-deletes a directory row and frees its path
// slot for reuse.
func (s *GORMStore) MarkDirectoryDeleted(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Directory{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]any{"deleted": true, "path_key": deletedPathKey(id)})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrDirectoryNotFound
	}
	return nil
}

// ============================================
// DIRECTORY METADATA
// ============================================

func (s *GORMStore) ListDirectoryMeta(ctx context.Context, directoryID string) ([]*models.DirectoryMeta, error) {
	return listByFields[models.DirectoryMeta](s.db, ctx, map[string]any{"directory_id": directoryID})
}

// UpsertDirectoryMeta inserts or replaces the entries by key, leaving rows
// for other keys untouched.
func (s *GORMStore) UpsertDirectoryMeta(ctx context.Context, directoryID string, entries []models.DirectoryMeta) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			e := entries[i]
			e.DirectoryID = directoryID
			if err := tx.Where("directory_id = ? AND key = ?", directoryID, e.Key).
				Delete(&models.DirectoryMeta{}).Error; err != nil {
				return err
			}
			if _, err := createWithID(tx, ctx, &e,
				func(m *models.DirectoryMeta, id string) { m.ID = id }, e.ID, models.ErrDuplicateDirectory); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteDirectoryMeta removes the entry for a key.
func (s *GORMStore) DeleteDirectoryMeta(ctx context.Context, directoryID, key string) error {
	return deleteByFields[models.DirectoryMeta](s.db, ctx, map[string]any{
		"directory_id": directoryID,
		"key":          key,
	}, models.ErrMetaNotFound)
}

// DeleteDirectoryRules removes every rule row of a directory, keeping the
// descriptive entries.
func (s *GORMStore) DeleteDirectoryRules(ctx context.Context, directoryID string) error {
	return s.db.WithContext(ctx).
		Where("directory_id = ? AND is_meta = ?", directoryID, false).
		Delete(&models.DirectoryMeta{}).Error
}
