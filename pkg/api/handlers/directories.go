package handlers

import (
	"net/http"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/service"
)

// DirectoryHandler handles directory, permission and rule endpoints.
//
// Directory paths contain slashes, so endpoints address directories through
// the path query parameter rather than URL segments.
type DirectoryHandler struct {
	svc *service.Service
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(svc *service.Service) *DirectoryHandler {
	return &DirectoryHandler{svc: svc}
}

// Create handles POST /api/v1/directories.
//
// The body is a batch of directory requests; each is answered with its own
// status.
func (h *DirectoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var reqs []service.DirectoryRequest
	if !decodeJSONBody(w, r, &reqs) {
		return
	}
	if len(reqs) == 0 {
		BadRequest(w, "at least one directory is required")
		return
	}
	statuses := h.svc.CreateDirectories(r.Context(), id, reqs)
	WriteJSON(w, http.StatusMultiStatus, statuses)
}

// Get handles GET /api/v1/directories?path=&meta=.
//
// The optional meta parameter is a metadata filter expression the
// directory must satisfy to be returned.
func (h *DirectoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	path, ok := queryParam(w, r, "path")
	if !ok {
		return
	}
	view, err := h.svc.GetDirectory(r.Context(), id, path, r.URL.Query().Get("meta"))
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSONOK(w, view)
}

// Delete handles DELETE /api/v1/directories?path=.
func (h *DirectoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	path, ok := queryParam(w, r, "path")
	if !ok {
		return
	}
	if err := h.svc.DeleteDirectory(r.Context(), id, path); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// UpdatePermissions handles PUT /api/v1/directories/permissions.
//
// The body is a batch of grants; each is answered with its own status.
func (h *DirectoryHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var reqs []service.PermissionRequest
	if !decodeJSONBody(w, r, &reqs) {
		return
	}
	if len(reqs) == 0 {
		BadRequest(w, "at least one permission is required")
		return
	}
	statuses := h.svc.UpdatePermissions(r.Context(), id, reqs)
	WriteJSON(w, http.StatusMultiStatus, statuses)
}

// DeletePermission handles DELETE /api/v1/directories/permissions?path=&username=.
func (h *DirectoryHandler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	path, ok := queryParam(w, r, "path")
	if !ok {
		return
	}
	username, ok := queryParam(w, r, "username")
	if !ok {
		return
	}
	if err := h.svc.DeletePermission(r.Context(), id, path, username); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// RulesRequest is the request body for PUT /api/v1/directories/rules.
type RulesRequest struct {
	Path  string                `json:"path"`
	Mode  string                `json:"mode"`
	Rules []service.RuleRequest `json:"rules"`
}

// UpdateRules handles PUT /api/v1/directories/rules.
func (h *DirectoryHandler) UpdateRules(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req RulesRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	mode := models.ParseRuleMode(req.Mode)
	if err := h.svc.UpdateDirectoryRules(r.Context(), id, req.Path, mode, req.Rules); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// DeleteRules handles DELETE /api/v1/directories/rules?path=.
func (h *DirectoryHandler) DeleteRules(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	path, ok := queryParam(w, r, "path")
	if !ok {
		return
	}
	if err := h.svc.DeleteDirectoryRules(r.Context(), id, path); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// MetaRequest is the request body for PUT /api/v1/directories/meta.
type MetaRequest struct {
	Path string `json:"path"`
	Meta string `json:"meta"`
}

// UpdateMeta handles PUT /api/v1/directories/meta.
func (h *DirectoryHandler) UpdateMeta(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req MetaRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.svc.UpdateDirectoryMeta(r.Context(), id, req.Path, req.Meta); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// DeleteMeta handles DELETE /api/v1/directories/meta?path=&key=.
func (h *DirectoryHandler) DeleteMeta(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	path, ok := queryParam(w, r, "path")
	if !ok {
		return
	}
	key, ok := queryParam(w, r, "key")
	if !ok {
		return
	}
	if err := h.svc.DeleteDirectoryMeta(r.Context(), id, path, key); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}
