// Package validation checks command line paths before any work starts.
package validation

import (
	"errors"
	"fmt"
	"os"

	"fjacquet/bwa-report/internal/parsererror"
)

// ValidateInputFile checks that path names an existing regular file.
func ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return &parsererror.NotFoundError{FilePath: path, Err: err}
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return &parsererror.InvalidFormatError{FilePath: path, ExpectedFormat: "a regular file", Msg: "not a file"}
	}
	return nil
}

// ValidateInputDir checks that path names an existing directory.
func ValidateInputDir(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return &parsererror.NotFoundError{FilePath: path, Err: err}
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.IsDir() {
		return &parsererror.ValidationError{Field: "input", Value: path, Reason: "must be a directory"}
	}
	return nil
}

// ValidateOutputFile rejects empty paths and paths naming an existing directory.
func ValidateOutputFile(path string) error {
	if path == "" {
		return &parsererror.ValidationError{Field: "output", Value: path, Reason: "output file is required"}
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return &parsererror.ValidationError{Field: "output", Value: path, Reason: "is a directory"}
	}
	return nil
}

// IsValidFilePermissions checks if the given file mode is valid for sensitive files.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0007 != 0 { // Check if 'others' have any permissions
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600", mode.Perm().String())
	}
	return nil
}
