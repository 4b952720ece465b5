package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// nameRegex matches rule, axis, type and template names.
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateName validates the name of a rule, axis, type or template.
// Names appear in output paths and cache keys, so they are restricted to
// identifier-like characters with dots and dashes.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "%s name too long (max 128 characters)", kind)
	}
	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid %s name: %q", kind, name)
	}
	return nil
}

// ValidatePath validates a file path relative to the manifest directory.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") || filepath.IsAbs(path) {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateOutputName validates a generated file name after token
// substitution. It must be a relative path that names a file, not a
// directory, and must not be hidden.
func ValidateOutputName(name string) error {
	if err := ValidatePath(name); err != nil {
		return err
	}
	if strings.HasSuffix(name, "/") {
		return New(ErrCodeInvalidPath, "output name %q names a directory", name)
	}
	if strings.HasPrefix(filepath.Base(name), ".") {
		return New(ErrCodeInvalidPath, "output name %q cannot be a hidden file", name)
	}
	return nil
}

// cacheSchemes lists the URL schemes accepted for remote caches.
var cacheSchemes = []string{"redis://", "rediss://", "mongodb://", "mongodb+srv://"}

// ValidateCacheURL validates a remote cache URL.
// It only checks the scheme; the backend driver parses the rest.
func ValidateCacheURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "cache URL cannot be empty")
	}
	for _, scheme := range cacheSchemes {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "cache URL must use one of %s", strings.Join(cacheSchemes, ", "))
}
