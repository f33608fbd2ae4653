package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Request Correlation
	// ========================================================================
	KeyRequestID = "request_id" // HTTP request ID for correlation
	KeyClientIP  = "client_ip"  // Client IP address

	// ========================================================================
	// Identity
	// ========================================================================
	KeyTenantID = "tenant_id" // Owning tenant identifier
	KeyUserID   = "user_id"   // Acting user identifier
	KeyUsername = "username"  // Acting user name
	KeyOrg      = "org"       // Tenant organization name

	// ========================================================================
	// Catalog Entities
	// ========================================================================
	KeyPath      = "path"      // Full directory or file path
	KeyDirectory = "directory" // Directory identifier
	KeyFile      = "file"      // File identifier
	KeySavepoint = "savepoint" // Storage location name
	KeySize      = "size"      // File size in bytes
	KeyAction    = "action"    // Permission action mask
	KeyGrantee   = "grantee"   // Permission grantee
	KeyRuleMode  = "rule_mode" // Directory rule mode

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyOperation  = "operation"   // Operation name
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyStatus     = "status"      // HTTP status code
	KeyCount      = "count"       // Result or entry count
	KeyFilter     = "filter"      // Filter expression
	KeyPage       = "page"        // Search page number
)

// ============================================================================
// Typed attribute constructors
// ============================================================================

// RequestID returns a request-id attribute.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a client-ip attribute.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// TenantID returns a tenant attribute.
func TenantID(id string) slog.Attr {
	return slog.String(KeyTenantID, id)
}

// UserID returns a user attribute.
func UserID(id string) slog.Attr {
	return slog.String(KeyUserID, id)
}

// Username returns a username attribute.
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Path returns a path attribute.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Size returns a size attribute.
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// Action returns an action-mask attribute.
func Action(mask string) slog.Attr {
	return slog.String(KeyAction, mask)
}

// Operation returns an operation attribute.
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// DurationMs returns a duration attribute in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns an error attribute, tolerating nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Status returns an HTTP status attribute.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Count returns a count attribute.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}
