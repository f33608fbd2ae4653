package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RuleMode controls how a directory's metadata rules apply to files
// cataloged beneath it.
type RuleMode string

const (
	// RuleModeNone means the directory carries no rule enforcement.
	RuleModeNone RuleMode = ""

	// RuleModeStrict rejects files whose metadata strays from the declared
	// rule set: no extra keys, every mandatory key present, never more
	// entries than rules.
	RuleModeStrict RuleMode = "STRICT"

	// RuleModeStandard fills missing keys from rule defaults and allows
	// extra keys.
	RuleModeStandard RuleMode = "STANDARD"
)

// IsValid returns true if this is a valid rule mode.
func (m RuleMode) IsValid() bool {
	switch m {
	case RuleModeNone, RuleModeStrict, RuleModeStandard:
		return true
	default:
		return false
	}
}

// String returns the string representation of the rule mode.
func (m RuleMode) String() string {
	return string(m)
}

// ParseRuleMode converts a string to a RuleMode, case-insensitively.
// Returns RuleModeNone if the string is not a valid mode.
func ParseRuleMode(s string) RuleMode {
	m := RuleMode(strings.ToUpper(s))
	if m.IsValid() {
		return m
	}
	return RuleModeNone
}

// PathKey folds a path for uniqueness checks and lookups. Paths are unique
// per tenant case-insensitively, so the stored key is the lower-cased path.
func PathKey(path string) string {
	return strings.ToLower(path)
}

// Directory represents a logical directory in a tenant's catalog.
//
// Paths are absolute, slash-separated and unique per tenant
// case-insensitively among live rows; PathKey carries the folded form the
// unique index covers. Parent holds the path of the containing directory,
// empty for a root-level directory. Deletion is soft: deleted directories
// keep their row so lineage under them stays resolvable, and the store
// frees their PathKey slot so the path can be created again.
type Directory struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string    `gorm:"not null;size:36;uniqueIndex:idx_tenant_path" json:"tenant_id"`
	Path      string    `gorm:"not null;size:1024;index" json:"path"`
	PathKey   string    `gorm:"not null;size:1024;uniqueIndex:idx_tenant_path" json:"-"`
	Parent    string    `gorm:"index;size:1024" json:"parent"`
	OwnerID   string    `gorm:"not null;size:36" json:"owner_id"`
	RuleMode  RuleMode  `gorm:"size:16" json:"rule_mode,omitempty"`
	Deleted   bool      `gorm:"default:false" json:"deleted"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Metadata    []DirectoryMeta `gorm:"foreignKey:DirectoryID" json:"metadata,omitempty"`
	Permissions []Permission    `gorm:"foreignKey:DirectoryID" json:"permissions,omitempty"`
}

// TableName returns the table name for Directory.
func (Directory) TableName() string {
	return "directories"
}

// Validate checks if the directory has valid configuration.
func (d *Directory) Validate() error {
	if d.TenantID == "" {
		return fmt.Errorf("tenant is required")
	}
	if !strings.HasPrefix(d.Path, "/") {
		return fmt.Errorf("path must be absolute")
	}
	if !d.RuleMode.IsValid() {
		return fmt.Errorf("invalid rule mode %q", d.RuleMode)
	}
	return nil
}

// Depth returns the number of path segments, so "/a/b" has depth 2.
func (d *Directory) Depth() int {
	trimmed := strings.Trim(d.Path, "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}

// DirectoryMeta is a single metadata entry attached to a directory.
//
// The same table carries two kinds of rows. Descriptive rows (IsMeta true)
// are plain key/value annotations on the directory itself. Rule rows
// (IsMeta false) declare the constraints applied to file metadata beneath
// the directory: a type, an optional mandatory flag and an optional default
// used under STANDARD mode.
type DirectoryMeta struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	DirectoryID string   `gorm:"not null;size:36;uniqueIndex:idx_dirmeta_key" json:"directory_id"`
	Key         string   `gorm:"not null;size:255;uniqueIndex:idx_dirmeta_key" json:"key"`
	Value       string   `gorm:"size:255" json:"value,omitempty"`
	IsMeta      bool     `gorm:"default:false" json:"is_meta"`
	Type        MetaType `gorm:"size:16" json:"type,omitempty"`
	Mandatory   bool     `gorm:"default:false" json:"mandatory"`
	DefaultText string   `gorm:"size:255" json:"default_text,omitempty"`
	DefaultNum  *float64 `json:"default_num,omitempty"`
}

// TableName returns the table name for DirectoryMeta.
func (DirectoryMeta) TableName() string {
	return "directory_metadata"
}

// HasDefault reports whether the rule row carries a default value.
func (m *DirectoryMeta) HasDefault() bool {
	return m.DefaultText != "" || m.DefaultNum != nil
}

// DefaultValue returns the default as a string, preferring the text form.
func (m *DirectoryMeta) DefaultValue() string {
	if m.DefaultText != "" {
		return m.DefaultText
	}
	if m.DefaultNum != nil {
		return strconv.FormatFloat(*m.DefaultNum, 'f', -1, 64)
	}
	return ""
}
