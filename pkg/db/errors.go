package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. When constraintName is provided, the helper looks for
// the constraint text in the error message so races on a specific index can be
// told apart.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	isUnique := strings.Contains(msg, "duplicate key value") ||
		// sqlite phrasing, used by the in-memory test databases.
		strings.Contains(msg, "UNIQUE constraint failed")
	if !isUnique {
		return false
	}
	if constraintName != "" {
		// Both postgres and sqlite name the violated index/column in the
		// message, so the caller can tell constraints apart.
		return strings.Contains(msg, constraintName)
	}
	return true
}
