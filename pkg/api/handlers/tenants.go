package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalakehq/catalogd/pkg/catalog/service"
)

// TenantHandler handles tenant provisioning and tenant-level settings.
type TenantHandler struct {
	svc *service.Service
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(svc *service.Service) *TenantHandler {
	return &TenantHandler{svc: svc}
}

// Provision handles POST /api/v1/tenants.
//
// Provisioning is the bootstrap operation: it creates the tenant together
// with its root administrator and returns the generated keys. The response
// is the only time the keys are shown.
func (h *TenantHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req service.ProvisionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.svc.ProvisionTenant(r.Context(), req)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSONCreated(w, result)
}

// UpdateSettings handles PUT /api/v1/tenant/settings.
func (h *TenantHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req service.TenantSettings
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.svc.UpdateTenantSettings(r.Context(), id, req); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// GetQuota handles GET /api/v1/tenant/quota.
func (h *TenantHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	quota, err := h.svc.GetTenantQuota(r.Context(), id)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSONOK(w, quota)
}

// QuotaRequest is the request body for PUT /api/v1/tenant/quota.
type QuotaRequest struct {
	StorageQuota int64 `json:"storage_quota"`
}

// SetQuota handles PUT /api/v1/tenant/quota.
func (h *TenantHandler) SetQuota(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req QuotaRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.svc.SetTenantQuota(r.Context(), id, req.StorageQuota); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// ReplaceSchema handles PUT /api/v1/tenant/schema.
func (h *TenantHandler) ReplaceSchema(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req []service.SchemaDefRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.svc.ReplaceSchema(r.Context(), id, req); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}

// DeleteSchemaDef handles DELETE /api/v1/tenant/schema/{name}.
func (h *TenantHandler) DeleteSchemaDef(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.svc.DeleteSchemaDef(r.Context(), id, name); err != nil {
		WriteFault(w, err)
		return
	}
	WriteNoContent(w)
}
