package errors

import (
	"strings"
	"unicode"
)

// maxNodeIDLength bounds identifiers accepted from the command line and HTTP queries.
const maxNodeIDLength = 256

// ValidateNodeID validates a node identifier received from an untrusted caller.
// It does not check that the node exists; the router reports NODE_NOT_FOUND for that.
//
// The validation rules are intentionally conservative:
//   - No empty (or whitespace-only) identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}

	return nil
}

// ValidateQuery validates a free-text destination query before it is resolved.
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return New(ErrCodeInvalidInput, "query cannot be empty")
	}

	const maxQueryLength = 512
	if len(q) > maxQueryLength {
		return New(ErrCodeInvalidInput, "query too long (max %d characters)", maxQueryLength)
	}

	for _, r := range q {
		if r == '\x00' {
			return New(ErrCodeInvalidInput, "query contains null bytes")
		}
	}

	return nil
}

// ValidatePath validates a relative file path taken from a config file or request.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
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

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
