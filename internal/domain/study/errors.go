package study

import "errors"

var (
	ErrSessionNotFound = errors.New("study session not found")
	ErrUnknownAction   = errors.New("unknown study action")
)
