package models

import (
	"fmt"
	"strings"
	"time"
)

// Action characters for the file scope of a permission mask.
const (
	ActionRead   = 'R'
	ActionWrite  = 'W'
	ActionDelete = 'D'
)

// Action characters for the directory scope. Directory rights reuse the
// read/write/delete verbs but are stored shifted into a second alphabet so
// both scopes pack into one string: A grants directory read, B directory
// write, C directory delete.
const (
	ActionDirRead   = 'A'
	ActionDirWrite  = 'B'
	ActionDirDelete = 'C'
)

// OwnerAction is the full mask implicitly granted to a directory's creator.
const OwnerAction = "RWDABC"

// BuildAction packs a file-scope action string and a directory-scope action
// string into the stored mask. Both inputs use R/W/D verbs; the directory
// part is shifted into the A/B/C alphabet. Returns the empty string when
// both parts are empty.
func BuildAction(fileAction, dirAction string) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(fileAction) {
		switch c {
		case ActionRead, ActionWrite, ActionDelete:
			b.WriteRune(c)
		}
	}
	for _, c := range strings.ToUpper(dirAction) {
		switch c {
		case ActionRead:
			b.WriteRune(ActionDirRead)
		case ActionWrite:
			b.WriteRune(ActionDirWrite)
		case ActionDelete:
			b.WriteRune(ActionDirDelete)
		}
	}
	return b.String()
}

// ParseAction unpacks a stored mask into its file-scope and directory-scope
// action strings, both expressed with R/W/D verbs.
func ParseAction(action string) (fileAction, dirAction string) {
	var file, dir strings.Builder
	for _, c := range strings.ToUpper(action) {
		switch c {
		case ActionRead, ActionWrite, ActionDelete:
			file.WriteRune(c)
		case ActionDirRead:
			dir.WriteRune(ActionRead)
		case ActionDirWrite:
			dir.WriteRune(ActionWrite)
		case ActionDirDelete:
			dir.WriteRune(ActionDelete)
		}
	}
	return file.String(), dir.String()
}

// ActionContains reports whether the stored mask have covers every
// character of the requested mask want. Comparison is per character and
// case-insensitive; an empty want is always covered.
func ActionContains(have, want string) bool {
	h := strings.ToUpper(have)
	for _, c := range strings.ToUpper(want) {
		if !strings.ContainsRune(h, c) {
			return false
		}
	}
	return true
}

// ValidAction reports whether every character of the mask belongs to one of
// the two action alphabets.
func ValidAction(action string) bool {
	for _, c := range strings.ToUpper(action) {
		switch c {
		case ActionRead, ActionWrite, ActionDelete,
			ActionDirRead, ActionDirWrite, ActionDirDelete:
		default:
			return false
		}
	}
	return true
}

// Permission grants a user an action mask on a directory.
//
// Acquired rows are created automatically for tenant admins whose org
// position is an ancestor of the grantee's; they are removed when the
// underlying positions change rather than edited in place.
type Permission struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID    string    `gorm:"index;not null;size:36" json:"tenant_id"`
	DirectoryID string    `gorm:"not null;size:36;uniqueIndex:idx_dir_user" json:"directory_id"`
	UserID      string    `gorm:"not null;size:36;uniqueIndex:idx_dir_user" json:"user_id"`
	Action      string    `gorm:"not null;size:6" json:"action"`
	GrantedBy   string    `gorm:"size:36" json:"granted_by,omitempty"`
	Acquired    bool      `gorm:"default:false" json:"acquired"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Permission.
func (Permission) TableName() string {
	return "permissions"
}

// Validate checks if the permission has valid configuration.
func (p *Permission) Validate() error {
	if p.DirectoryID == "" {
		return fmt.Errorf("directory is required")
	}
	if p.UserID == "" {
		return fmt.Errorf("user is required")
	}
	if p.Action == "" {
		return fmt.Errorf("action is required")
	}
	if !ValidAction(p.Action) {
		return fmt.Errorf("invalid action %q", p.Action)
	}
	return nil
}

// Covers reports whether this permission's mask covers the requested one.
func (p *Permission) Covers(want string) bool {
	return ActionContains(p.Action, want)
}
