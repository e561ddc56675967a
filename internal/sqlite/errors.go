package sqlite

import (
	"fmt"
	"strings"

	"github.com/rpggio/flashdeck/internal/store"
)

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapErr prefixes err with the failed action and marks lock contention as
// transient.
func wrapErr(action string, err error) error {
	if isBusy(err) {
		return fmt.Errorf("failed to %s: %w: %w", action, store.ErrTransient, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
