package models

import (
	"fmt"
	"strings"
	"time"
)

// User represents a catalog user within a tenant.
//
// OrgPositions holds the user's slash-separated positions in the tenant's
// organizational hierarchy, for example "acme/platform/data". Admins with a
// position that is an ancestor of another user's position acquire access to
// that user's directories.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID     string    `gorm:"not null;size:36;uniqueIndex:idx_tenant_username" json:"tenant_id"`
	Username     string    `gorm:"not null;size:255;uniqueIndex:idx_tenant_username" json:"username"`
	UserKey      string    `gorm:"uniqueIndex;not null;size:36" json:"-"`
	PasswordHash string    `json:"-"`
	Admin        bool      `gorm:"default:false" json:"admin"`
	OrgPositions []string  `gorm:"serializer:json" json:"org_positions,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.TenantID == "" {
		return fmt.Errorf("tenant is required")
	}
	for _, pos := range u.OrgPositions {
		if strings.TrimSpace(pos) == "" {
			return fmt.Errorf("org position must not be blank")
		}
	}
	return nil
}

// HasPosition reports whether the user holds the given org position exactly,
// ignoring a trailing slash on either side.
func (u *User) HasPosition(position string) bool {
	want := strings.TrimSuffix(position, "/")
	for _, pos := range u.OrgPositions {
		if strings.TrimSuffix(pos, "/") == want {
			return true
		}
	}
	return false
}
