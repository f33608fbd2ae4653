package service

import (
	"context"
	"time"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/permission"
	"github.com/datalakehq/catalogd/pkg/catalog/query"
	"github.com/datalakehq/catalogd/pkg/catalog/store"
)

// Fetch scopes what a catalog search returns.
const (
	FetchFiles       = "file"
	FetchDirectories = "directory"
)

// SearchRequest bundles the raw filter expressions of a catalog search.
// Blank filters are no-ops. Prefix narrows the search to a directory
// subtree of at most three given segments.
type SearchRequest struct {
	Fetch       string     `json:"fetch,omitempty"`
	Meta        string     `json:"meta,omitempty"`
	Size        string     `json:"size,omitempty"`
	Count       string     `json:"count,omitempty"`
	Paths       string     `json:"paths,omitempty"`
	Names       string     `json:"names,omitempty"`
	Savepoints  string     `json:"savepoints,omitempty"`
	Prefix      string     `json:"prefix,omitempty"`
	CreatedFrom *time.Time `json:"created_from,omitempty"`
	CreatedTo   *time.Time `json:"created_to,omitempty"`
	PageNo      int        `json:"page_no,omitempty"`
	PageSize    int        `json:"page_size,omitempty"`
}

// SearchResult is one page of catalog search matches.
type SearchResult struct {
	Files       []*FileView      `json:"files,omitempty"`
	Directories []*DirectoryView `json:"directories,omitempty"`
	Total       int64            `json:"total"`
	PageNo      int              `json:"page_no"`
	PageSize    int              `json:"page_size"`
}

// Search runs a filtered catalog search scoped to entries the caller may
// see: admins see the whole tenant, everyone else their own files plus
// directories they hold a grant on.
func (s *Service) Search(ctx context.Context, id Identity, req SearchRequest) (*SearchResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearch(time.Since(start)) }()

	switch req.Fetch {
	case "", FetchFiles:
		return s.searchFiles(ctx, id, req)
	case FetchDirectories:
		return s.searchDirectories(ctx, id, req)
	default:
		return nil, s.fail(models.Validationf("fetch", req.Fetch, "fetch must be file or directory"))
	}
}

func (s *Service) searchFiles(ctx context.Context, id Identity, req SearchRequest) (*SearchResult, error) {
	pred, err := query.ParseMetaFilter(req.Meta)
	s.metrics.RecordParsedQuery(err == nil)
	if err != nil {
		return nil, s.fail(err)
	}
	size, err := query.ParseSizeFilter(req.Size)
	if err != nil {
		return nil, s.fail(err)
	}
	var patterns []string
	if req.Prefix != "" {
		patterns, err = query.ExpandPrefix(req.Prefix)
		if err != nil {
			return nil, s.fail(err)
		}
	}

	search := store.FileSearch{
		TenantID:     id.Tenant.ID,
		Meta:         pred,
		Size:         size,
		Paths:        query.ParseCSVFilter(req.Paths, false),
		Names:        query.ParseCSVFilter(req.Names, false),
		Savepoints:   query.ParseCSVFilter(req.Savepoints, true),
		PathPatterns: patterns,
		CreatedFrom:  req.CreatedFrom,
		CreatedTo:    req.CreatedTo,
		PageNo:       req.PageNo,
		PageSize:     req.PageSize,
	}
	if !id.User.Admin {
		search.ViewerID = id.User.ID
	}

	files, total, err := s.store.SearchFiles(ctx, search)
	if err != nil {
		return nil, s.fail(err)
	}

	views := make([]*FileView, len(files))
	for i, f := range files {
		views[i] = fileView(f, id.User.ID)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	pageNo := req.PageNo
	if pageNo <= 0 {
		pageNo = 1
	}
	logger.DebugCtx(ctx, "file search served",
		logger.Count(len(views)), logger.KeyPage, pageNo)
	return &SearchResult{Files: views, Total: total, PageNo: pageNo, PageSize: pageSize}, nil
}

func (s *Service) searchDirectories(ctx context.Context, id Identity, req SearchRequest) (*SearchResult, error) {
	pred, err := query.ParseMetaFilter(req.Meta)
	s.metrics.RecordParsedQuery(err == nil)
	if err != nil {
		return nil, s.fail(err)
	}
	count, err := query.ParseCountFilter(req.Count)
	if err != nil {
		return nil, s.fail(err)
	}
	patterns, err := query.ExpandPrefix(req.Prefix)
	if err != nil {
		return nil, s.fail(err)
	}

	dirs, err := s.store.ListDirectoriesByPatterns(ctx, id.Tenant.ID, patterns, "Metadata", "Permissions")
	if err != nil {
		return nil, err
	}

	var matched []*models.Directory
	for _, dir := range dirs {
		if permission.Check(id.User, dir, dir.Permissions, string(models.ActionDirRead)) != nil {
			continue
		}
		if req.CreatedFrom != nil && dir.CreatedAt.Before(*req.CreatedFrom) {
			continue
		}
		if req.CreatedTo != nil && dir.CreatedAt.After(*req.CreatedTo) {
			continue
		}
		if !query.Eval(pred, dirMetaEntries(dir.Metadata)) {
			continue
		}
		if count != nil {
			n, err := s.store.CountLiveFiles(ctx, dir.ID)
			if err != nil {
				return nil, err
			}
			if !count.Matches(n) {
				continue
			}
		}
		matched = append(matched, dir)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	pageNo := req.PageNo
	if pageNo <= 0 {
		pageNo = 1
	}
	total := int64(len(matched))

	from := (pageNo - 1) * pageSize
	if from > len(matched) {
		from = len(matched)
	}
	to := from + pageSize
	if to > len(matched) {
		to = len(matched)
	}

	views := make([]*DirectoryView, 0, to-from)
	for _, dir := range matched[from:to] {
		view, err := s.directoryView(ctx, id, dir, dirMetaEntries(dir.Metadata))
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	logger.DebugCtx(ctx, "directory search served",
		logger.Count(len(views)), logger.KeyPage, pageNo)
	return &SearchResult{Directories: views, Total: total, PageNo: pageNo, PageSize: pageSize}, nil
}
