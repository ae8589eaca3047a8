package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured pipeline error with a stable code
// that log consumers and exit-status handling can rely on.
type AppError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new AppError with the given code and message
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new AppError with additional details
func NewWithDetails(code, message string, details interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap attaches a code and message to an underlying error
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Predefined error types for common scenarios
var (
	// Configuration
	ErrInvalidConfig    = New("INVALID_CONFIG", "Invalid configuration")
	ErrMissingParameter = New("MISSING_PARAMETER", "Required parameter is missing")

	// Input data
	ErrNoInput        = New("NO_INPUT", "No input files found")
	ErrSnapshotFormat = New("SNAPSHOT_FORMAT", "Snapshot file has an unexpected layout")
	ErrMissingColumns = New("MISSING_COLUMNS", "Snapshot is missing required columns")

	// Series building
	ErrSeriesFinalized = New("SERIES_FINALIZED", "Series aggregator is already finalized")
	ErrBucketMismatch  = New("BUCKET_MISMATCH", "Series tables have different bucket layouts")
	ErrShardRange      = New("SHARD_RANGE", "Shard range is out of bounds")

	// Storage
	ErrStoreWrite  = New("STORE_WRITE_FAILED", "Failed to write series store")
	ErrStoreRead   = New("STORE_READ_FAILED", "Failed to read series store")
	ErrStoreFormat = New("STORE_FORMAT", "Series store has an unexpected schema")

	// General
	ErrFileSystem = New("FILESYSTEM_ERROR", "File system error")
	ErrInternal   = New("INTERNAL_ERROR", "Internal error")
)

// Helper functions for specific error types

// ConfigError creates an invalid configuration error with field details
func ConfigError(field, message string) *AppError {
	return NewWithDetails("INVALID_CONFIG", "Invalid configuration", ValidationError{
		Field:   field,
		Message: message,
	})
}

// FileSystemError creates a filesystem error for a failed operation
func FileSystemError(operation string, err error) *AppError {
	return Wrap(err, "FILESYSTEM_ERROR", fmt.Sprintf("File system error during %s", operation))
}

// SnapshotError creates a snapshot parsing error for a specific file
func SnapshotError(file string, err error) *AppError {
	return Wrap(err, "SNAPSHOT_FORMAT", fmt.Sprintf("Failed to parse snapshot %s", file))
}

// StoreWriteError creates a store write error for a specific path
func StoreWriteError(path string, err error) *AppError {
	return Wrap(err, "STORE_WRITE_FAILED", fmt.Sprintf("Failed to write series store %s", path))
}

// StoreReadError creates a store read error for a specific path
func StoreReadError(path string, err error) *AppError {
	return Wrap(err, "STORE_READ_FAILED", fmt.Sprintf("Failed to read series store %s", path))
}

// UnknownGroupError reports a selected group key that the series store
// does not contain
func UnknownGroupError(key string) *AppError {
	return NewWithDetails("UNKNOWN_GROUP", fmt.Sprintf("Group key %q is not present in the series store", key), key)
}

// ExportFormatError reports an output extension no renderer supports
func ExportFormatError(ext string) *AppError {
	return NewWithDetails("EXPORT_FORMAT", fmt.Sprintf("Unsupported export format %q", ext), ext)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates a configuration error from multiple fields
func NewValidationErrors(errors []ValidationError) *AppError {
	return NewWithDetails(
		"INVALID_CONFIG",
		"Invalid configuration",
		ValidationErrors{Errors: errors},
	)
}

// IsCode reports whether err carries the given error code anywhere in
// its chain.
func IsCode(err error, code string) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
		if err == nil {
			break
		}
	}
	return false
}

// Code returns the error code of the outermost AppError in the chain,
// or "INTERNAL_ERROR" for plain errors.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}
