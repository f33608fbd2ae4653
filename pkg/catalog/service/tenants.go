package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/org"
)

// ProvisionRequest carries the inputs of tenant provisioning.
type ProvisionRequest struct {
	Organization  string `json:"organization"`
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

// ProvisionResult reports the provisioned tenant and root admin, including
// the generated keys. The keys are only ever returned here.
type ProvisionResult struct {
	TenantID     string `json:"tenant_id"`
	Organization string `json:"organization"`
	APIKey       string `json:"api_key"`
	AdminID      string `json:"admin_id"`
	AdminKey     string `json:"admin_key"`
}

// ProvisionTenant creates a tenant for an organization together with its
// root admin. The admin's org position is the organization itself, making
// it the ancestor of every position later created beneath it.
func (s *Service) ProvisionTenant(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	organization := org.Normalize(req.Organization)
	if organization == "" {
		return nil, s.fail(models.Validationf("organization", req.Organization, "organization is required"))
	}
	if req.AdminUsername == "" {
		return nil, s.fail(models.Validationf("admin_username", "", "admin username is required"))
	}
	if req.AdminPassword == "" {
		return nil, s.fail(models.Validationf("admin_password", "", "admin password is required"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		Organization: organization,
		APIKey:       uuid.NewString(),
		AllowAdhoc:   true,
	}
	tenantID, err := s.store.CreateTenant(ctx, tenant)
	if err != nil {
		return nil, s.fail(err)
	}

	admin := &models.User{
		TenantID:     tenantID,
		Username:     req.AdminUsername,
		UserKey:      uuid.NewString(),
		PasswordHash: string(hash),
		Admin:        true,
		OrgPositions: []string{organization},
	}
	adminID, err := s.store.CreateUser(ctx, admin)
	if err != nil {
		return nil, s.fail(err)
	}

	logger.InfoCtx(ctx, "tenant provisioned",
		logger.KeyOrg, organization, logger.TenantID(tenantID))
	return &ProvisionResult{
		TenantID:     tenantID,
		Organization: organization,
		APIKey:       tenant.APIKey,
		AdminID:      adminID,
		AdminKey:     admin.UserKey,
	}, nil
}

// TenantSettings carries the schema enforcement knobs of a tenant. Zero
// length and count limits mean unlimited.
type TenantSettings struct {
	Schematic      bool `json:"schematic"`
	AllowAdhoc     bool `json:"allow_adhoc"`
	MaxKeyLen      int  `json:"max_key_len"`
	MaxValueLen    int  `json:"max_value_len"`
	MaxMetaPerFile int  `json:"max_meta_per_file"`
}

// UpdateTenantSettings replaces the tenant's schema enforcement settings.
// Admin only.
func (s *Service) UpdateTenantSettings(ctx context.Context, id Identity, settings TenantSettings) error {
	if !id.User.Admin {
		return s.fail(models.Privacyf("user %s cannot change tenant settings", id.User.Username))
	}
	if settings.MaxKeyLen < 0 || settings.MaxValueLen < 0 || settings.MaxMetaPerFile < 0 {
		return s.fail(models.Validationf("limits", "", "metadata limits must not be negative"))
	}
	tenant := &models.Tenant{
		ID:             id.Tenant.ID,
		Schematic:      settings.Schematic,
		AllowAdhoc:     settings.AllowAdhoc,
		MaxKeyLen:      settings.MaxKeyLen,
		MaxValueLen:    settings.MaxValueLen,
		MaxMetaPerFile: settings.MaxMetaPerFile,
	}
	return s.store.UpdateTenantSettings(ctx, tenant)
}

// QuotaView reports a tenant's storage budget and consumption in bytes.
type QuotaView struct {
	StorageQuota int64 `json:"storage_quota"`
	UsedStorage  int64 `json:"used_storage"`
}

// GetTenantQuota returns the tenant's storage quota and usage.
func (s *Service) GetTenantQuota(ctx context.Context, id Identity) (*QuotaView, error) {
	tenant, err := s.store.GetTenant(ctx, id.Tenant.ID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &QuotaView{StorageQuota: tenant.StorageQuota, UsedStorage: tenant.UsedStorage}, nil
}

// SetTenantQuota sets the tenant's storage quota in bytes. Zero removes
// the limit. Admin only.
func (s *Service) SetTenantQuota(ctx context.Context, id Identity, quota int64) error {
	if !id.User.Admin {
		return s.fail(models.Privacyf("user %s cannot change the storage quota", id.User.Username))
	}
	if quota < 0 {
		return s.fail(models.Validationf("quota", "", "storage quota must not be negative"))
	}
	if err := s.store.UpdateTenantQuota(ctx, id.Tenant.ID, quota); err != nil {
		return s.fail(err)
	}
	logger.InfoCtx(ctx, "tenant quota updated", logger.TenantID(id.Tenant.ID), logger.Size(quota))
	return nil
}

// SchemaDefRequest declares one metadata key of the tenant schema.
type SchemaDefRequest struct {
	Name string          `json:"name"`
	Type models.MetaType `json:"type"`
}

// ReplaceSchema swaps the tenant's declared metadata schema. Admin only.
func (s *Service) ReplaceSchema(ctx context.Context, id Identity, reqs []SchemaDefRequest) error {
	if !id.User.Admin {
		return s.fail(models.Privacyf("user %s cannot change the tenant schema", id.User.Username))
	}
	defs := make([]models.SchemaDef, 0, len(reqs))
	for _, req := range reqs {
		if req.Name == "" {
			return s.fail(models.Validationf("name", "", "schema key name must not be empty"))
		}
		t := req.Type
		if t == "" {
			t = models.MetaTypeText
		}
		if !t.IsValid() {
			return s.fail(models.Validationf(req.Name, string(req.Type), "unknown metadata type"))
		}
		defs = append(defs, models.SchemaDef{Name: req.Name, Type: t})
	}
	if err := s.store.ReplaceSchemaDefs(ctx, id.Tenant.ID, defs); err != nil {
		return s.fail(err)
	}
	logger.InfoCtx(ctx, "tenant schema replaced", logger.Count(len(defs)))
	return nil
}

// DeleteSchemaDef removes one declared key from the tenant schema. Admin
// only.
func (s *Service) DeleteSchemaDef(ctx context.Context, id Identity, name string) error {
	if !id.User.Admin {
		return s.fail(models.Privacyf("user %s cannot change the tenant schema", id.User.Username))
	}
	if err := s.store.DeleteSchemaDef(ctx, id.Tenant.ID, name); err != nil {
		return s.fail(err)
	}
	return nil
}
