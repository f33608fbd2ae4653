// Package service orchestrates the catalog operations.
//
// Each operation composes the core packages in a fixed order: resolve the
// entities, check permissions, validate and transform metadata, then
// persist. Batch operations report one models.Status per input item so one
// bad item never blocks its siblings.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/catalog/metadata"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/org"
	"github.com/datalakehq/catalogd/pkg/catalog/permission"
	"github.com/datalakehq/catalogd/pkg/catalog/store"
	"github.com/datalakehq/catalogd/pkg/metrics"
)

// maxSegmentLen bounds the length of a single path segment.
const maxSegmentLen = 255

// Identity is the resolved caller of an operation: the tenant owning the
// request and the acting user within it.
type Identity struct {
	Tenant *models.Tenant
	User   *models.User
}

// Service exposes the catalog operations over a store.
type Service struct {
	store    *store.GORMStore
	resolver *org.Resolver
	metrics  *metrics.CatalogMetrics
}

// New creates a catalog service over the given store. The metrics argument
// may be nil when metrics are disabled.
func New(st *store.GORMStore, m *metrics.CatalogMetrics) (*Service, error) {
	resolver, err := org.NewResolver()
	if err != nil {
		return nil, err
	}
	return &Service{store: st, resolver: resolver, metrics: m}, nil
}

// Resolver exposes the org-position resolver, shared with the API layer.
func (s *Service) Resolver() *org.Resolver {
	return s.resolver
}

// NormalizePath canonicalizes a directory or file path. Paths must be
// absolute; a single trailing slash is dropped, empty segments are rejected
// and every segment is bounded at 255 characters.
func NormalizePath(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", models.Validationf("path", raw, "path must not be empty")
	}
	if !strings.HasPrefix(p, "/") {
		return "", models.Validationf("path", raw, "path must be absolute")
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	if strings.Contains(p, "//") {
		return "", models.Validationf("path", raw, "path must not contain empty segments")
	}
	for _, seg := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		if len(seg) > maxSegmentLen {
			return "", models.Validationf("path", raw, "path segment exceeds %d characters", maxSegmentLen)
		}
	}
	return p, nil
}

// parentPath returns the containing directory of a path, empty for a
// root-level path.
func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}

// splitFilePath separates a full file path into its directory and name.
func splitFilePath(path string) (dir, name string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	if idx == 0 {
		return "", path[1:]
	}
	return path[:idx], path[idx+1:]
}

// checkAccess runs a permission check and records its outcome.
func (s *Service) checkAccess(ctx context.Context, user *models.User, dir *models.Directory, want string) error {
	err := permission.Check(user, dir, dir.Permissions, want)
	s.metrics.RecordPermissionCheck(err == nil)
	if err != nil {
		logger.DebugCtx(ctx, "permission denied",
			logger.UserID(user.ID), logger.Path(dir.Path), logger.Action(want))
	}
	return err
}

// fail records the rejection kind of a fault before returning it.
func (s *Service) fail(err error) error {
	if f := models.AsFault(err); f != nil {
		s.metrics.RecordRejection(f.Kind.String())
	}
	return err
}

// upsertAcquired writes an acquired grant unless the user already holds a
// direct grant on the directory, which always wins.
func (s *Service) upsertAcquired(ctx context.Context, perm models.Permission) error {
	existing, err := s.store.GetPermission(ctx, perm.DirectoryID, perm.UserID)
	if err == nil && !existing.Acquired {
		return nil
	}
	if err != nil && !errors.Is(err, models.ErrPermissionNotFound) {
		return err
	}
	perm.Acquired = true
	_, err = s.store.UpsertPermission(ctx, &perm)
	return err
}

// toFileMeta converts validated entries into storable rows, parsing the
// numeric shadow value where the value is a number.
func toFileMeta(entries []metadata.Entry) []models.FileMeta {
	rows := make([]models.FileMeta, len(entries))
	for i, e := range entries {
		rows[i] = models.FileMeta{Key: e.Key, Value: e.Value}
		if n, err := strconv.ParseFloat(strings.TrimSpace(e.Value), 64); err == nil {
			rows[i].ValueNumeric = &n
		}
	}
	return rows
}

// metaEntries flattens stored file metadata rows into entries.
func metaEntries(rows []models.FileMeta) []metadata.Entry {
	entries := make([]metadata.Entry, len(rows))
	for i, r := range rows {
		entries[i] = metadata.Entry{Key: r.Key, Value: r.Value}
	}
	return entries
}

// dirMetaEntries flattens the descriptive rows of a directory into entries,
// skipping rule rows.
func dirMetaEntries(rows []models.DirectoryMeta) []metadata.Entry {
	entries := make([]metadata.Entry, 0, len(rows))
	for _, r := range rows {
		if r.IsMeta {
			entries = append(entries, metadata.Entry{Key: r.Key, Value: r.Value})
		}
	}
	return entries
}
