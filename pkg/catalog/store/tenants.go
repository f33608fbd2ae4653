package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

// ============================================
// TENANT OPERATIONS
// ============================================

func (s *GORMStore) CreateTenant(ctx context.Context, tenant *models.Tenant) (string, error) {
	tenant.CreatedAt = time.Now()
	return createWithID(s.db, ctx, tenant, func(t *models.Tenant, id string) { t.ID = id }, tenant.ID, models.ErrDuplicateTenant)
}

func (s *GORMStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	return getByField[models.Tenant](s.db, ctx, "id", id, models.ErrTenantNotFound)
}

func (s *GORMStore) GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	return getByField[models.Tenant](s.db, ctx, "api_key", apiKey, models.ErrTenantNotFound)
}

func (s *GORMStore) GetTenantByOrganization(ctx context.Context, organization string) (*models.Tenant, error) {
	return getByField[models.Tenant](s.db, ctx, "organization", organization, models.ErrTenantNotFound)
}

func (s *GORMStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	if err := s.db.WithContext(ctx).Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// UpdateTenantSettings updates the schema enforcement settings of a tenant.
func (s *GORMStore) UpdateTenantSettings(ctx context.Context, tenant *models.Tenant) error {
	var existing models.Tenant
	if err := s.db.WithContext(ctx).Where("id = ?", tenant.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrTenantNotFound)
	}

	return s.db.WithContext(ctx).
		Model(&existing).
		Select("Schematic", "AllowAdhoc", "MaxKeyLen", "MaxValueLen", "MaxMetaPerFile").
		Updates(tenant).Error
}

// UpdateTenantQuota sets the tenant's storage quota in bytes.
func (s *GORMStore) UpdateTenantQuota(ctx context.Context, id string, quota int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("storage_quota", quota)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTenantNotFound
	}
	return nil
}

// AddUsedStorage adjusts the tenant's used-storage counter by delta bytes.
// Negative deltas release storage.
func (s *GORMStore) AddUsedStorage(ctx context.Context, id string, delta int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("used_storage", gorm.Expr("used_storage + ?", delta))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTenantNotFound
	}
	return nil
}
