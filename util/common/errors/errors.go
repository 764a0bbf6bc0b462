package errors

import (
	"errors"
	"fmt"
)

// Common errors that can be used across packages
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrPropertyMissing = errors.New("property not present")
)

// ValidationError represents an error that occurs during validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// FileError represents an error that occurs during file operations
type FileError struct {
	Path    string
	Op      string
	Wrapped error
}

func (e *FileError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s operation failed on %s: %v", e.Op, e.Path, e.Wrapped)
	}
	return fmt.Sprintf("%s operation failed on %s", e.Op, e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Wrapped
}

// NewFileError creates a new FileError
func NewFileError(path, op string, wrapped error) error {
	return &FileError{
		Path:    path,
		Op:      op,
		Wrapped: wrapped,
	}
}

// DownloadError represents a download that failed for good, after every
// configured attempt was spent
type DownloadError struct {
	URL      string
	Attempts int
	Wrapped  error
}

func (e *DownloadError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("download failed for %s after %d attempt(s): %v", e.URL, e.Attempts, e.Wrapped)
	}
	return fmt.Sprintf("download failed for %s after %d attempt(s)", e.URL, e.Attempts)
}

func (e *DownloadError) Unwrap() error {
	return e.Wrapped
}

// NewDownloadError creates a new DownloadError
func NewDownloadError(url string, attempts int, wrapped error) error {
	return &DownloadError{
		URL:      url,
		Attempts: attempts,
		Wrapped:  wrapped,
	}
}

// PropertyError represents a property query that matched no record in an
// installer database
type PropertyError struct {
	Path     string
	Property string
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("property %s not found in %s", e.Property, e.Path)
}

func (e *PropertyError) Unwrap() error {
	return ErrPropertyMissing
}

// NewPropertyError creates a new PropertyError
func NewPropertyError(path, property string) error {
	return &PropertyError{
		Path:     path,
		Property: property,
	}
}

// PackageError represents an error that occurs during package operations
type PackageError struct {
	Op      string
	Package string
	Version string
	Wrapped error
}

func (e *PackageError) Error() string {
	if e.Version != "" {
		if e.Wrapped != nil {
			return fmt.Sprintf("package %s operation failed for %s@%s: %v", e.Op, e.Package, e.Version, e.Wrapped)
		}
		return fmt.Sprintf("package %s operation failed for %s@%s", e.Op, e.Package, e.Version)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("package %s operation failed for %s: %v", e.Op, e.Package, e.Wrapped)
	}
	return fmt.Sprintf("package %s operation failed for %s", e.Op, e.Package)
}

func (e *PackageError) Unwrap() error {
	return e.Wrapped
}

// NewPackageError creates a new PackageError
func NewPackageError(op, pkg, version string, wrapped error) error {
	return &PackageError{
		Op:      op,
		Package: pkg,
		Version: version,
		Wrapped: wrapped,
	}
}

// Is reports whether target matches err.
// It enables errors.Is() to work with our custom error types.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// It enables errors.As() to work with our custom error types.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
