package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name supplied by a user (CLI
// argument or HTTP path segment) before it is used for a lookup.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// SplitIdentity splits a "name@version" argument into its parts.
// The version part is required.
func SplitIdentity(s string) (name, version string, err error) {
	name, version, ok := strings.Cut(s, "@")
	if !ok || version == "" {
		return "", "", New(ErrCodeInvalidInput, "expected name@version, got %q", s)
	}
	if err := ValidatePackageName(name); err != nil {
		return "", "", err
	}
	return name, version, nil
}
