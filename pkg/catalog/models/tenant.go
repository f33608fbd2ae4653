package models

import (
	"fmt"
	"time"
)

// Tenant represents a provisioned organization in the catalog.
//
// A tenant owns its users, directories and files. The schema controls
// (Schematic, AllowAdhoc, the length and count limits) gate which metadata
// a tenant's files may carry; StorageQuota and UsedStorage track the byte
// budget enforced at upload time.
type Tenant struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Organization string `gorm:"uniqueIndex;not null;size:255" json:"organization"`
	APIKey       string `gorm:"uniqueIndex;not null;size:36" json:"-"`

	// Schema enforcement settings
	Schematic      bool `gorm:"default:false" json:"schematic"`
	AllowAdhoc     bool `gorm:"default:true" json:"allow_adhoc"`
	MaxKeyLen      int  `gorm:"default:0" json:"max_key_len"`
	MaxValueLen    int  `gorm:"default:0" json:"max_value_len"`
	MaxMetaPerFile int  `gorm:"default:0" json:"max_meta_per_file"`

	// Storage accounting, in bytes. A zero quota means unlimited.
	StorageQuota int64 `gorm:"default:0" json:"storage_quota"`
	UsedStorage  int64 `gorm:"default:0" json:"used_storage"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Users []User `gorm:"foreignKey:TenantID" json:"users,omitempty"`
}

// TableName returns the table name for Tenant.
func (Tenant) TableName() string {
	return "tenants"
}

// Validate checks if the tenant has valid configuration.
func (t *Tenant) Validate() error {
	if t.Organization == "" {
		return fmt.Errorf("organization is required")
	}
	if t.MaxKeyLen < 0 || t.MaxValueLen < 0 || t.MaxMetaPerFile < 0 {
		return fmt.Errorf("metadata limits must not be negative")
	}
	if t.StorageQuota < 0 {
		return fmt.Errorf("storage quota must not be negative")
	}
	return nil
}

// HasCapacity reports whether the tenant can absorb size additional bytes.
// A zero quota means no limit is enforced.
func (t *Tenant) HasCapacity(size int64) bool {
	if t.StorageQuota == 0 {
		return true
	}
	return t.UsedStorage+size <= t.StorageQuota
}
