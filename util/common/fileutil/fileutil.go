package fileutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nupdate/nupdate/util/common/errors"
)

// validatePath checks if a path is valid and accessible.
// Returns an error if the path is empty, contains invalid characters,
// or if the parent directory is not accessible.
// Drive letters and backslashes stay legal; package trees are routinely
// checked out on Windows hosts.
func validatePath(path string) error {
	if path == "" {
		return errors.NewValidationError("path", "path cannot be empty")
	}

	// Check for invalid characters in path
	if strings.ContainsAny(path, "<>|?*") {
		return errors.NewValidationError("path", "path contains invalid characters")
	}

	// Check if parent directory exists and is accessible
	parent := filepath.Dir(path)
	if parent != "." {
		if _, err := os.Stat(parent); err != nil {
			return errors.NewFileError(parent, "access", err)
		}
	}

	return nil
}

// validateWritePermissions checks if a directory is writable.
// Returns an error if the directory is not writable or if testing
// write permissions fails.
func validateWritePermissions(dir string) error {
	// Create a temporary file to test write permissions
	testFile := filepath.Join(dir, ".write_test")
	f, err := os.OpenFile(testFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return errors.NewFileError(dir, "write_permission", err)
	}
	f.Close()
	os.Remove(testFile)
	return nil
}

// EnsureDir creates a directory if it does not exist yet, keeping any
// existing contents in place. It validates the path and checks write
// permissions before returning.
func EnsureDir(path string) error {
	// Validate path
	if err := validatePath(path); err != nil {
		return err
	}

	if Exists(path) && !IsDir(path) {
		return errors.NewValidationError("path", "path exists but is not a directory")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.NewFileError(path, "create", err)
	}

	// Verify write permissions
	if err := validateWritePermissions(path); err != nil {
		return err
	}

	return nil
}

// ReadFile reads the entire file and returns its contents.
// It validates the path and checks if the file exists and is readable.
func ReadFile(path string) ([]byte, error) {
	// Validate path
	if err := validatePath(path); err != nil {
		return nil, err
	}

	// Check if file exists and is readable
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewFileError(path, "stat", err)
	}
	if info.IsDir() {
		return nil, errors.NewValidationError("path", "path is a directory, expected a file")
	}

	// Read file contents
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError(path, "read", err)
	}
	return data, nil
}

// WriteFile writes data to a file, creating it if necessary.
// It validates the path, creates parent directories if needed,
// and verifies write permissions before writing.
func WriteFile(path string, data []byte) error {
	// Validate path
	if err := validatePath(path); err != nil {
		return err
	}

	// Create parent directories if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewFileError(path, "create_dir", err)
	}

	// Verify write permissions
	if err := validateWritePermissions(dir); err != nil {
		return err
	}

	// Write file contents
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewFileError(path, "write", err)
	}
	return nil
}

// Exists checks if a file or directory exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir checks if the path is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile checks if the path is a regular file
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
