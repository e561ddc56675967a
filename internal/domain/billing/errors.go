package billing

import "errors"

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrCheckoutFailed  = errors.New("checkout provider error")
)
