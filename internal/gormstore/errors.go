package gormstore

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rpggio/flashdeck/internal/store"
)

// isTransient reports failures that may succeed on a later attempt:
// lost connections, serialization conflicts and server overload.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "57P01", "57P02", "57P03", "53300":
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08")
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func wrapErr(action string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("failed to %s: %w: %w", action, store.ErrTransient, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
