// Package models provides shared domain types for the catalogd core.
//
// This package contains all data models used across the catalog service,
// including tenants, users, directories, permissions, metadata schemas and
// file catalog entries. It provides a single source of truth for domain
// types with GORM annotations for database persistence.
package models

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&Tenant{},
		&User{},
		&Directory{},
		&Permission{},
		&SchemaDef{},
		&DirectoryMeta{},
		&File{},
		&FileMeta{},
	}
}
