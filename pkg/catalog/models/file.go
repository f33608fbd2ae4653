package models

import (
	"fmt"
	"strings"
	"time"
)

// LineageKey is the reserved metadata key recording how a historical
// catalog row came to exist.
const LineageKey = "dls:lineage"

// archiveSuffixLayout renders day, month, year, hour, minute, second
// without separators, always in UTC.
const archiveSuffixLayout = "02012006150405"

// FileOperation names a mutation that preserves the previous catalog row.
type FileOperation string

const (
	// OpOverwrite replaces a file's content and metadata.
	OpOverwrite FileOperation = "OVERWRITE"

	// OpAppend extends a file's content; sizes accumulate.
	OpAppend FileOperation = "APPEND"

	// OpArchive retires a file without replacing it.
	OpArchive FileOperation = "ARCHIVE"
)

// IsValid returns true if this is a valid file operation.
func (o FileOperation) IsValid() bool {
	switch o {
	case OpOverwrite, OpAppend, OpArchive:
		return true
	default:
		return false
	}
}

// String returns the string representation of the operation.
func (o FileOperation) String() string {
	return string(o)
}

// ParseFileOperation converts a string to a FileOperation, case-insensitively.
// Returns false if the string is not a valid operation.
func ParseFileOperation(s string) (FileOperation, bool) {
	o := FileOperation(strings.ToUpper(s))
	return o, o.IsValid()
}

// ArchivePath derives the historical path for a row displaced at the given
// instant, appending an underscore and a UTC timestamp to the live path.
func ArchivePath(path string, at time.Time) string {
	return path + "_" + at.UTC().Format(archiveSuffixLayout)
}

// File is a cataloged file entry.
//
// Path is the full logical path including the file name, unique per tenant
// case-insensitively among live rows; PathKey carries the folded form the
// unique index covers, and the store frees it on soft delete so the path
// can be cataloged again. Savepoint names the storage location the bytes
// live in; the catalog never touches the bytes themselves. Historical rows
// produced by overwrite, append or archive keep Deleted false but live
// under an ArchivePath so the live path stays free.
type File struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID    string    `gorm:"not null;size:36;uniqueIndex:idx_tenant_file_path" json:"tenant_id"`
	DirectoryID string    `gorm:"index;not null;size:36" json:"directory_id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Path        string    `gorm:"not null;size:1024;index" json:"path"`
	PathKey     string    `gorm:"not null;size:1024;uniqueIndex:idx_tenant_file_path" json:"-"`
	Savepoint   string    `gorm:"size:255" json:"savepoint,omitempty"`
	Size        int64     `gorm:"default:0" json:"size"`
	CreatedBy   string    `gorm:"size:36" json:"created_by,omitempty"`
	Deleted     bool      `gorm:"default:false" json:"deleted"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Metadata []FileMeta `gorm:"foreignKey:FileID" json:"metadata,omitempty"`
}

// TableName returns the table name for File.
func (File) TableName() string {
	return "files"
}

// Validate checks if the file entry has valid configuration.
func (f *File) Validate() error {
	if f.TenantID == "" {
		return fmt.Errorf("tenant is required")
	}
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.HasPrefix(f.Path, "/") {
		return fmt.Errorf("path must be absolute")
	}
	if f.Size < 0 {
		return fmt.Errorf("size must not be negative")
	}
	return nil
}

// FileMeta is a single metadata entry attached to a file.
//
// ValueNumeric is populated when the value parses as a float so numeric
// query operators can compare against it directly.
type FileMeta struct {
	ID           string   `gorm:"primaryKey;size:36" json:"id"`
	FileID       string   `gorm:"not null;size:36;uniqueIndex:idx_filemeta_key" json:"file_id"`
	Key          string   `gorm:"not null;size:255;uniqueIndex:idx_filemeta_key" json:"key"`
	Value        string   `gorm:"not null;size:255" json:"value"`
	ValueNumeric *float64 `json:"value_numeric,omitempty"`
}

// TableName returns the table name for FileMeta.
func (FileMeta) TableName() string {
	return "file_metadata"
}
