package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

// ============================================
// SCHEMA OPERATIONS
// ============================================

func (s *GORMStore) ListSchemaDefs(ctx context.Context, tenantID string) ([]*models.SchemaDef, error) {
	return listByFields[models.SchemaDef](s.db, ctx, map[string]any{"tenant_id": tenantID})
}

// ReplaceSchemaDefs swaps the tenant's declared schema for the given set.
func (s *GORMStore) ReplaceSchemaDefs(ctx context.Context, tenantID string, defs []models.SchemaDef) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).Delete(&models.SchemaDef{}).Error; err != nil {
			return err
		}
		for i := range defs {
			d := defs[i]
			d.TenantID = tenantID
			if _, err := createWithID(tx, ctx, &d,
				func(sd *models.SchemaDef, id string) { sd.ID = id }, d.ID, models.ErrDuplicateSchemaDef); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSchemaDef removes a single declared key.
func (s *GORMStore) DeleteSchemaDef(ctx context.Context, tenantID, name string) error {
	return deleteByFields[models.SchemaDef](s.db, ctx, map[string]any{
		"tenant_id": tenantID,
		"name":      name,
	}, models.ErrSchemaDefNotFound)
}
