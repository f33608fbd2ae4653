package service

import (
	"context"
	"time"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/catalog/metadata"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/rules"
	"github.com/datalakehq/catalogd/pkg/catalog/schema"
)

// FileRequest describes a file being cataloged. Path is the full logical
// path including the file name; Meta is the raw comma-separated metadata
// list; Savepoint names the storage location holding the bytes.
type FileRequest struct {
	Path      string `json:"path"`
	Savepoint string `json:"savepoint,omitempty"`
	Size      int64  `json:"size"`
	Meta      string `json:"meta,omitempty"`
}

// FileView is the read model of a cataloged file with metadata masked for
// the viewer.
type FileView struct {
	Path      string           `json:"path"`
	Name      string           `json:"name"`
	Savepoint string           `json:"savepoint,omitempty"`
	Size      int64            `json:"size"`
	CreatedBy string           `json:"created_by,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Metadata  []metadata.Entry `json:"metadata,omitempty"`
}

// CatalogFile registers a new file entry. The metadata pipeline runs in a
// fixed order: syntactic validation, privacy rewrite, tenant schema
// enforcement, then directory rules. The tenant must have quota headroom
// for the file's size.
func (s *Service) CatalogFile(ctx context.Context, id Identity, req FileRequest) (*FileView, error) {
	path, err := NormalizePath(req.Path)
	if err != nil {
		return nil, s.fail(err)
	}
	dirPath, name := splitFilePath(path)
	if dirPath == "" || name == "" {
		return nil, s.fail(models.Validationf("path", req.Path, "file path must include a directory and a name"))
	}
	if req.Size < 0 {
		return nil, s.fail(models.Validationf("size", "", "size must not be negative"))
	}

	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, dirPath)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionWrite)); err != nil {
		return nil, s.fail(err)
	}

	entries, err := s.runMetaPipeline(ctx, id, dir, req.Meta)
	if err != nil {
		return nil, s.fail(err)
	}

	if err := s.checkAvailableStorage(ctx, id, req.Size); err != nil {
		return nil, s.fail(err)
	}

	file := &models.File{
		TenantID:    id.Tenant.ID,
		DirectoryID: dir.ID,
		Name:        name,
		Path:        path,
		Savepoint:   req.Savepoint,
		Size:        req.Size,
		CreatedBy:   id.User.ID,
	}
	fileID, err := s.store.CreateFile(ctx, file)
	if err != nil {
		return nil, s.fail(err)
	}
	if len(entries) > 0 {
		if err := s.store.ReplaceFileMeta(ctx, fileID, toFileMeta(entries)); err != nil {
			return nil, err
		}
	}
	if err := s.store.AddUsedStorage(ctx, id.Tenant.ID, req.Size); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "file cataloged",
		logger.Path(path), logger.Size(req.Size), logger.Count(len(entries)))
	return &FileView{
		Path:      path,
		Name:      name,
		Savepoint: req.Savepoint,
		Size:      req.Size,
		CreatedBy: id.User.ID,
		CreatedAt: file.CreatedAt,
		Metadata:  metadata.Mask(entries, id.User.ID),
	}, nil
}

// UpdateFile mutates a cataloged file without losing history. The previous
// row is displaced to an archive path carrying a lineage marker; OVERWRITE
// then creates a fresh row, APPEND creates a row with the accumulated size,
// and ARCHIVE stops at the displacement.
func (s *Service) UpdateFile(ctx context.Context, id Identity, op models.FileOperation, req FileRequest) (*FileView, error) {
	if !op.IsValid() {
		return nil, s.fail(models.Validationf("operation", op.String(), "unknown file operation"))
	}
	path, err := NormalizePath(req.Path)
	if err != nil {
		return nil, s.fail(err)
	}

	old, err := s.store.GetFileByPath(ctx, id.Tenant.ID, path)
	if err != nil {
		return nil, s.fail(err)
	}
	dir, err := s.store.GetDirectoryByID(ctx, old.DirectoryID)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionWrite)); err != nil {
		return nil, s.fail(err)
	}

	var entries []metadata.Entry
	if op != models.OpArchive {
		entries, err = s.runMetaPipeline(ctx, id, dir, req.Meta)
		if err != nil {
			return nil, s.fail(err)
		}
	}

	added := req.Size
	if op == models.OpArchive {
		added = 0
	}
	if err := s.checkAvailableStorage(ctx, id, added); err != nil {
		return nil, s.fail(err)
	}

	// Displace the old row so its path frees up while lineage stays
	// queryable under the archive path.
	if err := s.archiveRow(ctx, old, op); err != nil {
		return nil, s.fail(err)
	}
	if op == models.OpArchive {
		logger.InfoCtx(ctx, "file archived", logger.Path(path))
		return nil, nil
	}

	size := req.Size
	if op == models.OpAppend {
		size = old.Size + req.Size
	}
	savepoint := req.Savepoint
	if savepoint == "" {
		savepoint = old.Savepoint
	}

	file := &models.File{
		TenantID:    id.Tenant.ID,
		DirectoryID: dir.ID,
		Name:        old.Name,
		Path:        path,
		Savepoint:   savepoint,
		Size:        size,
		CreatedBy:   id.User.ID,
	}
	fileID, err := s.store.CreateFile(ctx, file)
	if err != nil {
		return nil, s.fail(err)
	}
	if len(entries) > 0 {
		if err := s.store.ReplaceFileMeta(ctx, fileID, toFileMeta(entries)); err != nil {
			return nil, err
		}
	}
	if added != 0 {
		if err := s.store.AddUsedStorage(ctx, id.Tenant.ID, added); err != nil {
			return nil, err
		}
	}

	logger.InfoCtx(ctx, "file updated",
		logger.Path(path), logger.Operation(op.String()), logger.Size(size))
	return &FileView{
		Path:      path,
		Name:      old.Name,
		Savepoint: savepoint,
		Size:      size,
		CreatedBy: id.User.ID,
		CreatedAt: file.CreatedAt,
		Metadata:  metadata.Mask(entries, id.User.ID),
	}, nil
}

// archiveRow relocates a file row to its archive path and stamps the
// lineage marker recording which operation displaced it.
func (s *Service) archiveRow(ctx context.Context, old *models.File, op models.FileOperation) error {
	archived := models.ArchivePath(old.Path, time.Now())
	if err := s.store.RelocateFile(ctx, old.ID, archived); err != nil {
		return err
	}
	rows := make([]models.FileMeta, 0, len(old.Metadata)+1)
	for _, m := range old.Metadata {
		if m.Key == models.LineageKey {
			continue
		}
		rows = append(rows, models.FileMeta{Key: m.Key, Value: m.Value, ValueNumeric: m.ValueNumeric})
	}
	rows = append(rows, models.FileMeta{Key: models.LineageKey, Value: op.String()})
	return s.store.ReplaceFileMeta(ctx, old.ID, rows)
}

// GetFile returns the file view for a viewer holding file read access.
func (s *Service) GetFile(ctx context.Context, id Identity, path string) (*FileView, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, s.fail(err)
	}
	file, err := s.store.GetFileByPath(ctx, id.Tenant.ID, path)
	if err != nil {
		return nil, s.fail(err)
	}
	dir, err := s.store.GetDirectoryByID(ctx, file.DirectoryID)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionRead)); err != nil {
		return nil, s.fail(err)
	}
	return fileView(file, id.User.ID), nil
}

// DeleteFile soft-deletes a file entry and releases its bytes from the
// tenant's used storage.
func (s *Service) DeleteFile(ctx context.Context, id Identity, path string) error {
	path, err := NormalizePath(path)
	if err != nil {
		return s.fail(err)
	}
	file, err := s.store.GetFileByPath(ctx, id.Tenant.ID, path)
	if err != nil {
		return s.fail(err)
	}
	dir, err := s.store.GetDirectoryByID(ctx, file.DirectoryID)
	if err != nil {
		return s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionDelete)); err != nil {
		return s.fail(err)
	}
	if err := s.store.MarkFileDeleted(ctx, file.ID); err != nil {
		return s.fail(err)
	}
	if file.Size > 0 {
		if err := s.store.AddUsedStorage(ctx, id.Tenant.ID, -file.Size); err != nil {
			return err
		}
	}
	logger.InfoCtx(ctx, "file deleted", logger.Path(path), logger.Size(file.Size))
	return nil
}

// runMetaPipeline parses, validates and transforms raw metadata for a file
// beneath the directory: syntax first, then privacy rewrite, then the
// tenant schema, then the directory rules.
func (s *Service) runMetaPipeline(ctx context.Context, id Identity, dir *models.Directory, rawMeta string) ([]metadata.Entry, error) {
	entries, err := metadata.ParseList(rawMeta)
	if err != nil {
		return nil, err
	}
	if err := metadata.Validate(entries); err != nil {
		return nil, err
	}
	entries = metadata.ApplyPrivacy(entries, id.User.ID)

	defs, err := s.store.ListSchemaDefs(ctx, id.Tenant.ID)
	if err != nil {
		return nil, err
	}
	schemaDefs := make([]models.SchemaDef, len(defs))
	for i, d := range defs {
		schemaDefs[i] = *d
	}
	if err := schema.Enforce(id.Tenant, schemaDefs, entries); err != nil {
		return nil, err
	}

	return rules.Apply(dir.RuleMode, dir.Metadata, entries)
}

// checkAvailableStorage rejects an addition the tenant's quota cannot
// absorb. The check reads the tenant row fresh so concurrent uploads see
// the latest counter.
func (s *Service) checkAvailableStorage(ctx context.Context, id Identity, size int64) error {
	if size <= 0 {
		return nil
	}
	tenant, err := s.store.GetTenant(ctx, id.Tenant.ID)
	if err != nil {
		return err
	}
	if !tenant.HasCapacity(size) {
		return models.Validationf("insufficient.storage", "",
			"tenant storage quota of %d bytes cannot absorb %d more bytes", tenant.StorageQuota, size)
	}
	return nil
}

func fileView(file *models.File, viewerID string) *FileView {
	return &FileView{
		Path:      file.Path,
		Name:      file.Name,
		Savepoint: file.Savepoint,
		Size:      file.Size,
		CreatedBy: file.CreatedBy,
		CreatedAt: file.CreatedAt,
		Metadata:  metadata.Mask(metaEntries(file.Metadata), viewerID),
	}
}
