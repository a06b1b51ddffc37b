package errors

import (
	"strings"
	"unicode"
)

// ValidateViewKey validates a view key for safety and correctness.
// View keys name the description and result files written for the layout
// engine, so they must be usable as a single file name component.
//
// The validation rules are intentionally conservative:
//   - No empty keys
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 200 characters
func ValidateViewKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return New(ErrCodeInvalidView, "view key cannot be empty")
	}

	const maxKeyLength = 200
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidView, "view key too long (max %d characters)", maxKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidView, "view key contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..", // Parent directory
		"/",  // Path separator
		"\\", // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidView, "view key contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateGroupSeparator validates the separator used to split group paths.
// An empty separator is valid and disables nesting.
func ValidateGroupSeparator(sep string) error {
	if sep == "" {
		return nil
	}
	if strings.TrimSpace(sep) == "" {
		return New(ErrCodeInvalidInput, "group separator cannot be whitespace")
	}
	if len([]rune(sep)) > 1 {
		return New(ErrCodeInvalidInput, "group separator must be a single character, got %q", sep)
	}
	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
