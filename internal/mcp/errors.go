package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/flashdeck/internal/domain"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/study"
)

// APIError represents an MCP tool error.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. Unknown errors become
// INTERNAL without leaking their text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, collection.ErrUnauthenticated):
		return &APIError{Code: "UNAUTHENTICATED", Message: "no signed-in user", RecoveryHint: "Send a bearer token"}
	case errors.Is(err, generation.ErrGenerationFailed):
		return &APIError{Code: "GENERATION_FAILED", Message: generation.FailureMessage}
	case errors.As(err, &verr):
		return &APIError{Code: "VALIDATION_FAILED", Message: verr.Message(), RecoveryHint: "Fix the input and retry"}
	case errors.Is(err, collection.ErrDuplicateName):
		return &APIError{Code: "DUPLICATE_NAME", Message: "a collection with this name already exists", RecoveryHint: "Pick another name or rename the existing collection"}
	case errors.Is(err, collection.ErrNotFound):
		return &APIError{Code: "COLLECTION_NOT_FOUND", Message: "collection not found", RecoveryHint: "Call list_collections"}
	case errors.Is(err, study.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "study session not found or expired", RecoveryHint: "Call start_study"}
	case errors.Is(err, study.ErrUnknownAction):
		return &APIError{Code: "UNKNOWN_ACTION", Message: "unknown study action", RecoveryHint: "Use flip, next, previous or restart"}
	case errors.Is(err, collection.ErrPersistenceUnavailable):
		return &APIError{Code: "UNAVAILABLE", Message: "storage temporarily unavailable", RecoveryHint: "Try again later"}
	default:
		return &APIError{Code: "INTERNAL", Message: "unexpected error"}
	}
}
