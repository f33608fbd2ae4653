package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/query"
)

// ============================================
// FILE OPERATIONS
// ============================================

func (s *GORMStore) CreateFile(ctx context.Context, file *models.File) (string, error) {
	file.CreatedAt = time.Now()
	file.PathKey = models.PathKey(file.Path)
	return createWithID(s.db, ctx, file, func(f *models.File, id string) { f.ID = id }, file.ID, models.ErrDuplicateFile)
}

// GetFileByPath resolves a live file by tenant and full path, folding case.
func (s *GORMStore) GetFileByPath(ctx context.Context, tenantID, path string) (*models.File, error) {
	return getByFields[models.File](s.db, ctx, map[string]any{
		"tenant_id": tenantID,
		"path_key":  models.PathKey(path),
		"deleted":   false,
	}, models.ErrFileNotFound, "Metadata")
}

func (s *GORMStore) GetFileByID(ctx context.Context, id string) (*models.File, error) {
	return getByField[models.File](s.db, ctx, "id", id, models.ErrFileNotFound, "Metadata")
}

// CountLiveFiles counts the non-deleted files directly in a directory.
func (s *GORMStore) CountLiveFiles(ctx context.Context, directoryID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("directory_id = ? AND deleted = ?", directoryID, false).
		Count(&count).Error
	return count, err
}

// MarkFileDeleted soft-deletes a file row and frees its path slot.
func (s *GORMStore) MarkFileDeleted(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]any{"deleted": true, "path_key": deletedPathKey(id)})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFileNotFound
	}
	return nil
}

// RelocateFile moves a row to a new path and name inside a transaction-safe
// update, used when history rows are displaced to an archive path.
func (s *GORMStore) RelocateFile(ctx context.Context, id, newPath string) error {
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", id).
		Updates(map[string]any{"path": newPath, "path_key": models.PathKey(newPath)})

	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return models.ErrDuplicateFile
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFileNotFound
	}
	return nil
}

// UpdateFileSize sets the stored byte size of a file.
func (s *GORMStore) UpdateFileSize(ctx context.Context, id string, size int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", id).
		Update("size", size)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFileNotFound
	}
	return nil
}

// ============================================
// FILE METADATA
// ============================================

// ReplaceFileMeta swaps the file's metadata for the given entries.
func (s *GORMStore) ReplaceFileMeta(ctx context.Context, fileID string, entries []models.FileMeta) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", fileID).Delete(&models.FileMeta{}).Error; err != nil {
			return err
		}
		for i := range entries {
			e := entries[i]
			e.FileID = fileID
			if _, err := createWithID(tx, ctx, &e,
				func(m *models.FileMeta, id string) { m.ID = id }, e.ID, models.ErrDuplicateFile); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GORMStore) ListFileMeta(ctx context.Context, fileID string) ([]*models.FileMeta, error) {
	return listByFields[models.FileMeta](s.db, ctx, map[string]any{"file_id": fileID})
}

// ============================================
// FILE SEARCH
// ============================================

// FileSearch bundles the filters of a catalog search. Zero-valued fields
// are no-ops. ViewerID scopes visibility to files the viewer created or
// holds a grant on; leave it empty for admin searches.
type FileSearch struct {
	TenantID     string
	Meta         query.Predicate
	Size         *query.SizeFilter
	Paths        *query.CSVFilter
	Names        *query.CSVFilter
	Savepoints   *query.CSVFilter
	PathPatterns []string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	ViewerID     string
	PageNo       int
	PageSize     int
}

// DefaultPageSize applies when a search does not name one.
const DefaultPageSize = 50

// whereAnyLike ORs a LIKE clause per pattern onto the query.
func whereAnyLike(q *gorm.DB, column string, patterns []string) *gorm.DB {
	clauses := make([]string, len(patterns))
	args := make([]any, len(patterns))
	for i, p := range patterns {
		clauses[i] = column + " LIKE ?"
		args[i] = p
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// SearchFiles runs a filtered, paginated catalog search and returns the
// matching page plus the total match count.
func (s *GORMStore) SearchFiles(ctx context.Context, search FileSearch) ([]*models.File, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("files.tenant_id = ? AND files.deleted = ?", search.TenantID, false)

	metaSQL, metaArgs, err := compileMetaPredicate(search.Meta)
	if err != nil {
		return nil, 0, err
	}
	if metaSQL != "" {
		q = q.Where(metaSQL, metaArgs...)
	}

	if search.Size != nil {
		q = q.Where("files.size "+string(search.Size.Op)+" ?", search.Size.Bytes)
	}
	if search.Paths != nil {
		q = whereAnyLike(q, "files.path", search.Paths.Patterns)
	}
	if search.Names != nil {
		q = whereAnyLike(q, "files.name", search.Names.Patterns)
	}
	if search.Savepoints != nil {
		// Parsed savepoint patterns are already lower-cased.
		q = whereAnyLike(q, "LOWER(files.savepoint)", search.Savepoints.Patterns)
	}
	if len(search.PathPatterns) > 0 {
		// Prefix patterns resolve directories, which fold case.
		folded := make([]string, len(search.PathPatterns))
		for i, p := range search.PathPatterns {
			folded[i] = models.PathKey(p)
		}
		q = whereAnyLike(q, "files.path_key", folded)
	}
	if search.CreatedFrom != nil {
		q = q.Where("files.created_at >= ?", *search.CreatedFrom)
	}
	if search.CreatedTo != nil {
		q = q.Where("files.created_at <= ?", *search.CreatedTo)
	}
	if search.ViewerID != "" {
		q = q.Where(
			"(files.created_by = ? OR files.directory_id IN (SELECT directory_id FROM permissions WHERE user_id = ?))",
			search.ViewerID, search.ViewerID,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := search.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageNo := search.PageNo
	if pageNo <= 0 {
		pageNo = 1
	}

	var files []*models.File
	err = q.Preload("Metadata").
		Order("files.path").
		Limit(pageSize).
		Offset((pageNo - 1) * pageSize).
		Find(&files).Error
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}
