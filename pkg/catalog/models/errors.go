package models

import "errors"

// Common errors for catalog store operations.
var (
	// Tenant errors
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrDuplicateTenant = errors.New("tenant already exists")

	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")

	// Directory errors
	ErrDirectoryNotFound  = errors.New("directory not found")
	ErrDuplicateDirectory = errors.New("directory already exists")

	// Permission errors
	ErrPermissionNotFound  = errors.New("permission not found")
	ErrDuplicatePermission = errors.New("permission already exists")

	// Schema errors
	ErrSchemaDefNotFound  = errors.New("schema definition not found")
	ErrDuplicateSchemaDef = errors.New("schema definition already exists")

	// File errors
	ErrFileNotFound  = errors.New("file not found")
	ErrDuplicateFile = errors.New("file already exists")

	// Metadata errors
	ErrMetaNotFound = errors.New("metadata not found")

	// Credential errors
	ErrInvalidCredentials = errors.New("invalid credentials")
)
