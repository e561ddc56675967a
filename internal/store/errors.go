// Package store holds the error vocabulary shared by the collection store
// backends.
package store

import "errors"

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrTransient marks failures that may succeed if the operation is repeated,
	// such as a locked database or a dropped connection
	ErrTransient = errors.New("transient store failure")

	// ErrBatchCommitted is returned when Commit is called twice on one batch
	ErrBatchCommitted = errors.New("batch already committed")
)

// IsTransient reports whether err was classified as transient by a backend.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
