package models

import (
	"errors"
	"fmt"
	"net/http"
)

// FaultKind classifies a rejected operation.
//
// Every rejection produced by the catalog core falls into exactly one of
// these categories. The kind drives both the HTTP status reported to the
// caller and the retry guidance: validation, conflict and configuration
// faults are correctable by the client, privacy faults are not.
type FaultKind int

const (
	// KindValidation indicates malformed client input.
	KindValidation FaultKind = iota

	// KindPrivacy indicates the caller lacks entitlement for the operation.
	// This is distinct from authentication, which is handled before the
	// core is invoked.
	KindPrivacy

	// KindNotFound indicates a referenced entity is absent or soft-deleted.
	KindNotFound

	// KindConflict indicates a uniqueness violation, such as a duplicate
	// directory path or a duplicate permission grant.
	KindConflict

	// KindConfiguration indicates a tenant or rule misconfiguration, such
	// as a rule that is both mandatory and carries a default value.
	KindConfiguration
)

// String returns the string representation of the fault kind.
func (k FaultKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrivacy:
		return "privacy"
	case KindNotFound:
		return "not-found"
	case KindConflict:
		return "conflict"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the fault kind to the HTTP status code reported upward.
func (k FaultKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindPrivacy:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindConfiguration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Fault is the structured failure record returned by core operations.
//
// Key and Value identify the offending input (a metadata key, a directory
// path, a username) so the caller can retry a corrected request. Nothing
// that produces a Fault is process-fatal.
type Fault struct {
	Kind    FaultKind `json:"-"`
	Key     string    `json:"key,omitempty"`
	Value   string    `json:"value,omitempty"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Key != "" {
		return fmt.Sprintf("%s: %s (%s=%q)", f.Kind, f.Message, f.Key, f.Value)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NewFault creates a fault of the given kind with offending key/value context.
func NewFault(kind FaultKind, key, value, message string) *Fault {
	return &Fault{
		Kind:    kind,
		Key:     key,
		Value:   value,
		Message: message,
		Code:    kind.HTTPStatus(),
	}
}

// Validationf creates a validation fault with a formatted message.
func Validationf(key, value, format string, args ...any) *Fault {
	return NewFault(KindValidation, key, value, fmt.Sprintf(format, args...))
}

// Conflictf creates a conflict fault with a formatted message.
func Conflictf(key, value, format string, args ...any) *Fault {
	return NewFault(KindConflict, key, value, fmt.Sprintf(format, args...))
}

// Configurationf creates a configuration fault with a formatted message.
func Configurationf(key, value, format string, args ...any) *Fault {
	return NewFault(KindConfiguration, key, value, fmt.Sprintf(format, args...))
}

// NotFoundf creates a not-found fault with a formatted message.
func NotFoundf(key, value, format string, args ...any) *Fault {
	return NewFault(KindNotFound, key, value, fmt.Sprintf(format, args...))
}

// Privacyf creates a privacy fault with a formatted message.
func Privacyf(format string, args ...any) *Fault {
	return NewFault(KindPrivacy, "", "", fmt.Sprintf(format, args...))
}

// IsFault reports whether err is (or wraps) a Fault of the given kind.
func IsFault(err error, kind FaultKind) bool {
	f := AsFault(err)
	return f != nil && f.Kind == kind
}

// AsFault extracts a Fault from err, converting the store sentinel errors
// to their fault equivalents so callers see one taxonomy.
func AsFault(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	switch {
	case errors.Is(err, ErrDirectoryNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrTenantNotFound),
		errors.Is(err, ErrPermissionNotFound),
		errors.Is(err, ErrSchemaDefNotFound),
		errors.Is(err, ErrFileNotFound),
		errors.Is(err, ErrMetaNotFound):
		return NewFault(KindNotFound, "", "", err.Error())
	case errors.Is(err, ErrDuplicateDirectory),
		errors.Is(err, ErrDuplicateUser),
		errors.Is(err, ErrDuplicateTenant),
		errors.Is(err, ErrDuplicatePermission),
		errors.Is(err, ErrDuplicateSchemaDef),
		errors.Is(err, ErrDuplicateFile):
		return NewFault(KindConflict, "", "", err.Error())
	}
	return nil
}

// Status is the per-item outcome record for batch operations.
//
// Batch operations (multi-directory create, multi-permission update) report
// one Status per input item so one failure does not block independent
// siblings.
type Status struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// StatusOK builds a success status for a batch item.
func StatusOK(code int, key, value, message string) Status {
	return Status{Key: key, Value: value, Message: message, Code: code}
}

// StatusFromError builds a failure status for a batch item. Faults keep
// their own code and message; any other error is reported as a conflict,
// matching the storage-layer origin of non-fault failures.
func StatusFromError(key, value string, err error) Status {
	if f := AsFault(err); f != nil {
		msg := f.Message
		if msg == "" {
			msg = err.Error()
		}
		return Status{Key: key, Value: value, Message: msg, Code: f.Code}
	}
	return Status{Key: key, Value: value, Message: err.Error(), Code: http.StatusConflict}
}
