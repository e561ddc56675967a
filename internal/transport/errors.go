package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/flashdeck/internal/domain"
	"github.com/rpggio/flashdeck/internal/domain/billing"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/study"
)

// StatusFor maps a service error to an HTTP status and envelope.
func StatusFor(err error) (int, ErrorBody) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, collection.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorBody{Code: "unauthenticated", Message: "You must be signed in."}
	case errors.Is(err, generation.ErrGenerationFailed):
		return http.StatusBadGateway, ErrorBody{Code: "generation_failed", Message: generation.FailureMessage}
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorBody{Code: "validation_failed", Message: verr.Message(), Fields: verr.Errors}
	case errors.Is(err, study.ErrUnknownAction):
		return http.StatusBadRequest, ErrorBody{Code: "unknown_action", Message: "Unknown study action."}
	case errors.Is(err, collection.ErrDuplicateName):
		return http.StatusConflict, ErrorBody{Code: "duplicate_name", Message: "A collection with this name already exists."}
	case errors.Is(err, collection.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Code: "not_found", Message: "Collection not found."}
	case errors.Is(err, study.ErrSessionNotFound):
		return http.StatusNotFound, ErrorBody{Code: "session_not_found", Message: "Study session not found or expired."}
	case errors.Is(err, billing.ErrSessionNotFound):
		return http.StatusNotFound, ErrorBody{Code: "checkout_not_found", Message: "Checkout session not found."}
	case errors.Is(err, collection.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable, ErrorBody{Code: "unavailable", Message: "Storage is temporarily unavailable. Please try again later."}
	case errors.Is(err, billing.ErrCheckoutFailed):
		return http.StatusBadGateway, ErrorBody{Code: "checkout_failed", Message: "Error creating checkout session."}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: "internal", Message: "An unexpected error occurred."}
	}
}
