package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalakehq/catalogd/pkg/catalog/service"
)

// UserHandler handles user registration and role management.
type UserHandler struct {
	svc *service.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register handles POST /api/v1/users.
//
// The body is a batch of user registrations. Each item is processed
// independently and answered with its own status, so one bad entry does
// not sink the rest.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var reqs []service.UserRequest
	if !decodeJSONBody(w, r, &reqs) {
		return
	}
	if len(reqs) == 0 {
		BadRequest(w, "at least one user is required")
		return
	}
	statuses := h.svc.RegisterUsers(r.Context(), id, reqs)
	WriteJSON(w, http.StatusMultiStatus, statuses)
}

// UpdateRole handles PUT /api/v1/users/{username}/role.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req service.RoleRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	req.Username = chi.URLParam(r, "username")
	if err := h.svc.UpdateUserRole(r.Context(), id, req); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// DeleteRole handles DELETE /api/v1/users/{username}/role.
func (h *UserHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	username := chi.URLParam(r, "username")
	if err := h.svc.DeleteUserRole(r.Context(), id, username); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}
