package handlers

import (
	"net/http"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/service"
)

// FileHandler handles file catalog endpoints.
type FileHandler struct {
	svc *service.Service
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(svc *service.Service) *FileHandler {
	return &FileHandler{svc: svc}
}

// Catalog handles POST /api/v1/files.
func (h *FileHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req service.FileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	view, err := h.svc.CatalogFile(r.Context(), id, req)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSONCreated(w, view)
}

// Get handles GET /api/v1/files?path=.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	path, ok := queryParam(w, r, "path")
	if !ok {
		return
	}
	view, err := h.svc.GetFile(r.Context(), id, path)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSONOK(w, view)
}

// Update handles PUT /api/v1/files?op=.
//
// The op parameter names the mutation: OVERWRITE, APPEND or ARCHIVE. An
// archive answers 204 since no live row remains.
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	opParam, ok := queryParam(w, r, "op")
	if !ok {
		return
	}
	op, valid := models.ParseFileOperation(opParam)
	if !valid {
		BadRequest(w, "unknown file operation "+opParam)
		return
	}
	var req service.FileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	view, err := h.svc.UpdateFile(r.Context(), id, op, req)
	if err != nil {
		WriteFault(w, err)
		return
	}
	if view == nil {
		WriteNoContent(w)
		return
	}
	WriteJSONOK(w, view)
}

// Delete handles DELETE /api/v1/files?path=.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	path, ok := queryParam(w, r, "path")
	if !ok {
		return
	}
	if err := h.svc.DeleteFile(r.Context(), id, path); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}
