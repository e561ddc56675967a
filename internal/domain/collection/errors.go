package collection

import "errors"

var (
	ErrUnauthenticated = errors.New("no signed-in user")
	ErrDuplicateName   = errors.New("a collection with this name already exists")
	ErrNotFound        = errors.New("collection not found")

	// ErrPersistenceUnavailable is returned once transient store failures
	// outlast the retry policy.
	ErrPersistenceUnavailable = errors.New("persistence unavailable, try again later")

	// ErrUnexpected wraps any store failure that is not otherwise classified.
	ErrUnexpected = errors.New("unexpected persistence failure")
)
