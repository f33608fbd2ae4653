package models

import (
	"fmt"
	"strings"
)

// MetaType is the declared value type of a metadata key.
type MetaType string

const (
	// MetaTypeText accepts any permitted metadata value.
	MetaTypeText MetaType = "TEXT"

	// MetaTypeNumeric requires the value to parse as a float.
	MetaTypeNumeric MetaType = "NUMERIC"
)

// IsValid returns true if this is a valid metadata type.
func (t MetaType) IsValid() bool {
	return t == MetaTypeText || t == MetaTypeNumeric
}

// String returns the string representation of the metadata type.
func (t MetaType) String() string {
	return string(t)
}

// ParseMetaType converts a string to a MetaType, case-insensitively.
// Returns MetaTypeText if the string is not a valid type.
func ParseMetaType(s string) MetaType {
	t := MetaType(strings.ToUpper(s))
	if t.IsValid() {
		return t
	}
	return MetaTypeText
}

// SchemaDef declares a permitted metadata key for a schematic tenant.
//
// Matching against file metadata is case-insensitive on the name and
// requires the declared type to agree.
type SchemaDef struct {
	ID       string   `gorm:"primaryKey;size:36" json:"id"`
	TenantID string   `gorm:"not null;size:36;uniqueIndex:idx_tenant_schema" json:"tenant_id"`
	Name     string   `gorm:"not null;size:255;uniqueIndex:idx_tenant_schema" json:"name"`
	Type     MetaType `gorm:"not null;size:16" json:"type"`
}

// TableName returns the table name for SchemaDef.
func (SchemaDef) TableName() string {
	return "schema_defs"
}

// Validate checks if the schema definition has valid configuration.
func (s *SchemaDef) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !s.Type.IsValid() {
		return fmt.Errorf("invalid type %q", s.Type)
	}
	return nil
}

// Matches reports whether the definition covers the given name and type.
// The name comparison is case-insensitive.
func (s *SchemaDef) Matches(name string, typ MetaType) bool {
	return strings.EqualFold(s.Name, name) && s.Type == typ
}
