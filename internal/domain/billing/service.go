package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/flashdeck/internal/domain"
	"github.com/rpggio/flashdeck/internal/domain/collection"
)

// Service opens checkout sessions and polls their status.
type Service struct {
	gateway   Gateway
	returnURL string
	logger    *slog.Logger
}

// NewService creates a billing service. Hosted checkout redirects back to
// returnURL with the session id appended as the session_id query parameter.
func NewService(gateway Gateway, returnURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{gateway: gateway, returnURL: returnURL, logger: logger}
}

// Checkout opens a hosted checkout session for planID.
func (s *Service) Checkout(ctx context.Context, userID, planID string) (*Session, error) {
	if userID == "" {
		return nil, collection.ErrUnauthenticated
	}
	plan, ok := LookupPlan(planID)
	if !ok {
		return nil, domain.NewValidationError("plan", "Invalid plan selected")
	}

	back := resultURL(s.returnURL)
	sess, err := s.gateway.CreateSession(ctx, SessionRequest{
		UserID:     userID,
		Plan:       plan,
		SuccessURL: back,
		CancelURL:  back,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "creating checkout session", "plan", planID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	s.logger.InfoContext(ctx, "checkout session created", "user_id", userID, "plan", planID, "session_id", sess.ID)
	return sess, nil
}

// Status returns the payment status of a checkout session for display.
func (s *Service) Status(ctx context.Context, sessionID string) (*Status, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.NewValidationError("session_id", "Session ID is required")
	}
	st, err := s.gateway.GetSession(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}
	return st, nil
}

func resultURL(base string) string {
	if base == "" {
		base = "http://localhost:3000/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "result?session_id={CHECKOUT_SESSION_ID}"
}
