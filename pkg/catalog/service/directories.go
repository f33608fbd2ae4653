package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/catalog/metadata"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/permission"
	"github.com/datalakehq/catalogd/pkg/catalog/query"
)

// DirectoryRequest is one item of a batch directory creation.
type DirectoryRequest struct {
	Path string `json:"path"`
	// Meta is an optional comma-separated key=value list of descriptive
	// metadata. Privacy prefixes are not allowed on directories.
	Meta string `json:"meta,omitempty"`
}

// CreateDirectories creates the requested directories, expanding missing
// parents implicitly. The creator becomes the owner of every directory the
// call creates, with the full action mask, and tenant admins positioned
// above the creator acquire the same access.
func (s *Service) CreateDirectories(ctx context.Context, id Identity, reqs []DirectoryRequest) []models.Status {
	statuses := make([]models.Status, 0, len(reqs))
	for _, req := range reqs {
		if err := s.createDirectory(ctx, id, req); err != nil {
			s.fail(err)
			statuses = append(statuses, models.StatusFromError("path", req.Path, err))
			continue
		}
		statuses = append(statuses, models.StatusOK(http.StatusCreated, "path", req.Path, "directory created"))
	}
	return statuses
}

func (s *Service) createDirectory(ctx context.Context, id Identity, req DirectoryRequest) error {
	path, err := NormalizePath(req.Path)
	if err != nil {
		return err
	}
	if path == "/" {
		return models.Validationf("path", req.Path, "the root path cannot be created")
	}

	entries, err := metadata.ParseList(req.Meta)
	if err != nil {
		return err
	}
	if err := metadata.Validate(entries); err != nil {
		return err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Key, metadata.PrefixPrivate) {
			return models.Validationf(e.Key, e.Value, "directory metadata cannot be private")
		}
	}

	if _, err := s.store.GetDirectory(ctx, id.Tenant.ID, path); err == nil {
		return models.Conflictf("path", path, "directory already exists")
	} else if !errors.Is(err, models.ErrDirectoryNotFound) {
		return err
	}

	// Expand missing ancestors, shallowest first, so every parent exists
	// before its child.
	missing := []string{path}
	for p := parentPath(path); p != ""; p = parentPath(p) {
		if _, err := s.store.GetDirectory(ctx, id.Tenant.ID, p); err == nil {
			break
		} else if !errors.Is(err, models.ErrDirectoryNotFound) {
			return err
		}
		missing = append(missing, p)
	}
	sort.Slice(missing, func(i, j int) bool {
		return strings.Count(missing[i], "/") < strings.Count(missing[j], "/")
	})

	admins, err := s.acquiredAdminsOf(ctx, id.User)
	if err != nil {
		return err
	}

	for _, p := range missing {
		dir := &models.Directory{
			TenantID: id.Tenant.ID,
			Path:     p,
			Parent:   parentPath(p),
			OwnerID:  id.User.ID,
		}
		dirID, err := s.store.CreateDirectory(ctx, dir)
		if err != nil {
			return err
		}
		if err := s.grantOwner(ctx, id, dirID, admins); err != nil {
			return err
		}
		if p == path && len(entries) > 0 {
			rows := make([]models.DirectoryMeta, len(entries))
			for i, e := range entries {
				rows[i] = models.DirectoryMeta{Key: e.Key, Value: e.Value, IsMeta: true}
			}
			if err := s.store.UpsertDirectoryMeta(ctx, dirID, rows); err != nil {
				return err
			}
		}
	}

	logger.InfoCtx(ctx, "directory created",
		logger.Path(path), logger.Count(len(missing)))
	return nil
}

// grantOwner materializes the owner's implicit full-mask grant plus the
// acquired grants of the admins above the owner.
func (s *Service) grantOwner(ctx context.Context, id Identity, dirID string, admins []models.User) error {
	owner := models.Permission{
		TenantID:    id.Tenant.ID,
		DirectoryID: dirID,
		UserID:      id.User.ID,
		Action:      models.OwnerAction,
		GrantedBy:   id.User.ID,
	}
	if _, err := s.store.UpsertPermission(ctx, &owner); err != nil {
		return err
	}
	for _, admin := range admins {
		acquired := models.Permission{
			TenantID:    id.Tenant.ID,
			DirectoryID: dirID,
			UserID:      admin.ID,
			Action:      models.OwnerAction,
			GrantedBy:   id.User.ID,
		}
		if err := s.upsertAcquired(ctx, acquired); err != nil {
			return err
		}
	}
	return nil
}

// acquiredAdminsOf returns the tenant admins positioned above the user.
func (s *Service) acquiredAdminsOf(ctx context.Context, user *models.User) ([]models.User, error) {
	users, err := s.store.ListTenantUsers(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	tenantUsers := make([]models.User, len(users))
	for i, u := range users {
		tenantUsers[i] = *u
	}
	return permission.AcquiredAdmins(user, tenantUsers, s.resolver), nil
}

// DirectoryView is the read model of a directory: masked descriptive
// metadata, declared rules and grants grouped by action mask.
type DirectoryView struct {
	Path        string               `json:"path"`
	Parent      string               `json:"parent,omitempty"`
	OwnerID     string               `json:"owner_id"`
	RuleMode    models.RuleMode      `json:"rule_mode,omitempty"`
	Metadata    []metadata.Entry     `json:"metadata,omitempty"`
	Rules       []RuleView           `json:"rules,omitempty"`
	Permissions map[string][]string  `json:"permissions,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// RuleView is the read model of one declared directory rule.
type RuleView struct {
	Key       string          `json:"key"`
	Type      models.MetaType `json:"type"`
	Mandatory bool            `json:"mandatory"`
	Default   string          `json:"default,omitempty"`
}

// GetDirectory returns the directory view for a viewer holding directory
// read access. The optional metadata filter is evaluated against the
// directory's descriptive entries; a non-matching directory is reported as
// absent.
func (s *Service) GetDirectory(ctx context.Context, id Identity, path, metaFilter string) (*DirectoryView, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, s.fail(err)
	}
	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, path)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionDirRead)); err != nil {
		return nil, s.fail(err)
	}

	pred, err := query.ParseMetaFilter(metaFilter)
	s.metrics.RecordParsedQuery(err == nil)
	if err != nil {
		return nil, s.fail(err)
	}
	entries := dirMetaEntries(dir.Metadata)
	if !query.Eval(pred, entries) {
		return nil, s.fail(models.NotFoundf("path", path, "no directory matches the filter"))
	}

	return s.directoryView(ctx, id, dir, entries)
}

func (s *Service) directoryView(ctx context.Context, id Identity, dir *models.Directory, entries []metadata.Entry) (*DirectoryView, error) {
	view := &DirectoryView{
		Path:      dir.Path,
		Parent:    dir.Parent,
		OwnerID:   dir.OwnerID,
		RuleMode:  dir.RuleMode,
		Metadata:  metadata.Mask(entries, id.User.ID),
		CreatedAt: dir.CreatedAt,
	}

	for _, m := range dir.Metadata {
		if m.IsMeta {
			continue
		}
		view.Rules = append(view.Rules, RuleView{
			Key:       m.Key,
			Type:      m.Type,
			Mandatory: m.Mandatory,
			Default:   m.DefaultValue(),
		})
	}

	if len(dir.Permissions) > 0 {
		users, err := s.store.ListTenantUsers(ctx, id.Tenant.ID)
		if err != nil {
			return nil, err
		}
		names := make(map[string]string, len(users))
		for _, u := range users {
			names[u.ID] = u.Username
		}
		view.Permissions = make(map[string][]string)
		for _, p := range dir.Permissions {
			// Acquired rows mirror admin inheritance, not explicit grants.
			if p.Acquired {
				continue
			}
			name, ok := names[p.UserID]
			if !ok {
				name = p.UserID
			}
			view.Permissions[p.Action] = append(view.Permissions[p.Action], name)
		}
		for _, grantees := range view.Permissions {
			sort.Strings(grantees)
		}
	}
	return view, nil
}

// DeleteDirectory soft-deletes an empty directory. A directory holding live
// files or child directories is never deleted and deletion never cascades.
func (s *Service) DeleteDirectory(ctx context.Context, id Identity, path string) error {
	path, err := NormalizePath(path)
	if err != nil {
		return s.fail(err)
	}
	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, path)
	if err != nil {
		return s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionDirDelete)); err != nil {
		return s.fail(err)
	}

	files, err := s.store.CountLiveFiles(ctx, dir.ID)
	if err != nil {
		return err
	}
	if files > 0 {
		return s.fail(models.Conflictf("path", path, "directory still holds %d files", files))
	}
	children, err := s.store.CountChildDirectories(ctx, id.Tenant.ID, path)
	if err != nil {
		return err
	}
	if children > 0 {
		return s.fail(models.Conflictf("path", path, "directory still holds %d child directories", children))
	}

	if err := s.store.MarkDirectoryDeleted(ctx, dir.ID); err != nil {
		return s.fail(err)
	}
	logger.InfoCtx(ctx, "directory deleted", logger.Path(path))
	return nil
}

// PermissionRequest is one item of a batch permission update. FileAction
// and DirAction both use R/W/D verbs; they are packed into the stored mask.
type PermissionRequest struct {
	Path       string `json:"path"`
	Username   string `json:"username"`
	FileAction string `json:"file_action,omitempty"`
	DirAction  string `json:"dir_action,omitempty"`
}

// UpdatePermissions applies a batch of grants. Each grant is checked
// against the delegation rules; admins positioned above the grantee
// acquire the same grant automatically.
func (s *Service) UpdatePermissions(ctx context.Context, id Identity, reqs []PermissionRequest) []models.Status {
	statuses := make([]models.Status, 0, len(reqs))
	for _, req := range reqs {
		if err := s.updatePermission(ctx, id, req); err != nil {
			s.fail(err)
			statuses = append(statuses, models.StatusFromError(req.Username, req.Path, err))
			continue
		}
		statuses = append(statuses, models.StatusOK(http.StatusOK, req.Username, req.Path, "permission granted"))
	}
	return statuses
}

func (s *Service) updatePermission(ctx context.Context, id Identity, req PermissionRequest) error {
	path, err := NormalizePath(req.Path)
	if err != nil {
		return err
	}
	action := models.BuildAction(req.FileAction, req.DirAction)
	if action == "" {
		return models.Validationf("action", req.FileAction+"/"+req.DirAction, "no valid action characters")
	}

	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, path)
	if err != nil {
		return err
	}
	grantee, err := s.store.GetUserByName(ctx, id.Tenant.ID, req.Username)
	if err != nil {
		return err
	}

	granterGrants := grantsOf(dir.Permissions, id.User.ID)
	if err := permission.CheckGrant(id.User, grantee, dir, granterGrants, action); err != nil {
		s.metrics.RecordPermissionCheck(false)
		return err
	}
	s.metrics.RecordPermissionCheck(true)

	grant := models.Permission{
		TenantID:    id.Tenant.ID,
		DirectoryID: dir.ID,
		UserID:      grantee.ID,
		Action:      action,
		GrantedBy:   id.User.ID,
	}
	if _, err := s.store.UpsertPermission(ctx, &grant); err != nil {
		return err
	}

	admins, err := s.acquiredAdminsOf(ctx, grantee)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		acquired := models.Permission{
			TenantID:    id.Tenant.ID,
			DirectoryID: dir.ID,
			UserID:      admin.ID,
			Action:      action,
			GrantedBy:   id.User.ID,
		}
		if err := s.upsertAcquired(ctx, acquired); err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "permission granted",
		logger.Path(path), logger.Username(req.Username), logger.Action(action))
	return nil
}

// DeletePermission revokes a user's grant on a directory. Only a tenant
// admin or the directory owner may revoke.
func (s *Service) DeletePermission(ctx context.Context, id Identity, path, username string) error {
	path, err := NormalizePath(path)
	if err != nil {
		return s.fail(err)
	}
	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, path)
	if err != nil {
		return s.fail(err)
	}
	if !id.User.Admin && dir.OwnerID != id.User.ID {
		s.metrics.RecordPermissionCheck(false)
		return s.fail(models.Privacyf("user %s cannot revoke permissions on %s", id.User.Username, path))
	}
	s.metrics.RecordPermissionCheck(true)

	grantee, err := s.store.GetUserByName(ctx, id.Tenant.ID, username)
	if err != nil {
		return s.fail(err)
	}
	if err := s.store.DeletePermission(ctx, dir.ID, grantee.ID); err != nil {
		return s.fail(err)
	}
	logger.InfoCtx(ctx, "permission revoked", logger.Path(path), logger.Username(username))
	return nil
}

// RuleRequest declares one directory rule. Default carries the raw default
// value; for NUMERIC rules it must parse as a number.
type RuleRequest struct {
	Key       string          `json:"key"`
	Type      models.MetaType `json:"type"`
	Mandatory bool            `json:"mandatory"`
	Default   string          `json:"default,omitempty"`
}

// UpdateDirectoryRules declares the rule set and enforcement mode of a
// directory. A rule that is both mandatory and carries a default is a
// tenant misconfiguration and rejected.
func (s *Service) UpdateDirectoryRules(ctx context.Context, id Identity, path string, mode models.RuleMode, reqs []RuleRequest) error {
	path, err := NormalizePath(path)
	if err != nil {
		return s.fail(err)
	}
	if !mode.IsValid() || mode == models.RuleModeNone {
		return s.fail(models.Validationf("mode", mode.String(), "rule mode must be STRICT or STANDARD"))
	}
	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, path)
	if err != nil {
		return s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionDirWrite)); err != nil {
		return s.fail(err)
	}

	rows := make([]models.DirectoryMeta, 0, len(reqs))
	for _, req := range reqs {
		if req.Key == "" {
			return s.fail(models.Validationf("key", "", "rule key must not be empty"))
		}
		if req.Mandatory && req.Default != "" {
			return s.fail(models.Configurationf(req.Key, req.Default,
				"rule must not be both mandatory and carry a default"))
		}
		row := models.DirectoryMeta{
			Key:       req.Key,
			IsMeta:    false,
			Type:      req.Type,
			Mandatory: req.Mandatory,
		}
		if row.Type == "" {
			row.Type = models.MetaTypeText
		}
		if req.Default != "" {
			if row.Type == models.MetaTypeNumeric {
				n, err := strconv.ParseFloat(strings.TrimSpace(req.Default), 64)
				if err != nil {
					return s.fail(models.Validationf(req.Key, req.Default, "numeric rule default must be a number"))
				}
				row.DefaultNum = &n
			} else {
				row.DefaultText = req.Default
			}
		}
		rows = append(rows, row)
	}

	if err := s.store.UpsertDirectoryMeta(ctx, dir.ID, rows); err != nil {
		return s.fail(err)
	}
	if err := s.store.UpdateDirectoryRuleMode(ctx, dir.ID, mode); err != nil {
		return s.fail(err)
	}
	logger.InfoCtx(ctx, "directory rules updated",
		logger.Path(path), logger.Count(len(rows)), logger.KeyRuleMode, mode.String())
	return nil
}

// DeleteDirectoryRules removes every declared rule and resets the
// enforcement mode, keeping descriptive metadata untouched.
func (s *Service) DeleteDirectoryRules(ctx context.Context, id Identity, path string) error {
	path, err := NormalizePath(path)
	if err != nil {
		return s.fail(err)
	}
	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, path)
	if err != nil {
		return s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionDirWrite)); err != nil {
		return s.fail(err)
	}
	if err := s.store.DeleteDirectoryRules(ctx, dir.ID); err != nil {
		return s.fail(err)
	}
	return s.store.UpdateDirectoryRuleMode(ctx, dir.ID, models.RuleModeNone)
}

// UpdateDirectoryMeta upserts descriptive metadata entries on a directory.
// Directory metadata is always public.
func (s *Service) UpdateDirectoryMeta(ctx context.Context, id Identity, path, rawMeta string) error {
	path, err := NormalizePath(path)
	if err != nil {
		return s.fail(err)
	}
	entries, err := metadata.ParseList(rawMeta)
	if err != nil {
		return s.fail(err)
	}
	if len(entries) == 0 {
		return s.fail(models.Validationf("metadata", rawMeta, "no metadata entries supplied"))
	}
	if err := metadata.Validate(entries); err != nil {
		return s.fail(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Key, metadata.PrefixPrivate) {
			return s.fail(models.Validationf(e.Key, e.Value, "directory metadata cannot be private"))
		}
	}

	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, path)
	if err != nil {
		return s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionDirWrite)); err != nil {
		return s.fail(err)
	}

	rows := make([]models.DirectoryMeta, len(entries))
	for i, e := range entries {
		rows[i] = models.DirectoryMeta{Key: e.Key, Value: e.Value, IsMeta: true}
	}
	return s.store.UpsertDirectoryMeta(ctx, dir.ID, rows)
}

// DeleteDirectoryMeta removes one descriptive metadata entry by key.
func (s *Service) DeleteDirectoryMeta(ctx context.Context, id Identity, path, key string) error {
	path, err := NormalizePath(path)
	if err != nil {
		return s.fail(err)
	}
	dir, err := s.store.GetDirectory(ctx, id.Tenant.ID, path)
	if err != nil {
		return s.fail(err)
	}
	if err := s.checkAccess(ctx, id.User, dir, string(models.ActionDirWrite)); err != nil {
		return s.fail(err)
	}
	if err := s.store.DeleteDirectoryMeta(ctx, dir.ID, key); err != nil {
		return s.fail(err)
	}
	return nil
}

// grantsOf filters the grants held by one user.
func grantsOf(grants []models.Permission, userID string) []models.Permission {
	var out []models.Permission
	for _, g := range grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out
}
