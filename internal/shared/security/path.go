package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathEscape indicates the resolved path would escape the trusted root directory.
	ErrPathEscape = errors.New("path escapes base directory")
	// ErrInvalidSegment is returned for file names that could be used for traversal.
	ErrInvalidSegment = errors.New("invalid path segment")
)

// ResolveWithin joins elems under base and guarantees the absolute result
// stays inside base.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}

	cleanBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	target, err := filepath.Abs(filepath.Join(append([]string{cleanBase}, elems...)...))
	if err != nil {
		return "", fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(cleanBase, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}

	return target, nil
}

// ValidateSegment rejects names that are empty, reserved, or contain path
// separators. Report and storage file names go through it before they are
// joined onto a directory.
func ValidateSegment(name string) error {
	switch name {
	case "":
		return fmt.Errorf("%w: empty name", ErrInvalidSegment)
	case ".", "..":
		return fmt.Errorf("%w: %q is reserved", ErrInvalidSegment, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidSegment, name)
	}
	return nil
}

// FileWithin validates name as a single segment and resolves it under dir.
func FileWithin(dir, name string) (string, error) {
	if err := ValidateSegment(name); err != nil {
		return "", err
	}
	return ResolveWithin(dir, name)
}
