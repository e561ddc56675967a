// Package stripecheckout implements the billing gateway on Stripe hosted
// checkout sessions.
package stripecheckout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rpggio/flashdeck/internal/domain/billing"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// Config configures the Stripe client.
type Config struct {
	SecretKey string
	// BaseURL overrides the Stripe API endpoint. Empty means production.
	BaseURL           string
	MaxNetworkRetries int64
	HTTPClient        *http.Client
}

// Gateway opens and polls Stripe checkout sessions.
type Gateway struct {
	client session.Client
	logger *slog.Logger
}

var _ billing.Gateway = (*Gateway)(nil)

// New creates a Stripe-backed gateway.
func New(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		LeveledLogger:     leveledLogger{logger: logger},
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}
	return &Gateway{
		client: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		logger: logger,
	}
}

// CreateSession opens a monthly subscription checkout for one unit of the plan.
func (g *Gateway) CreateSession(ctx context.Context, req billing.SessionRequest) (*billing.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.UserID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Plan.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Plan.ProductName),
					},
					UnitAmount: stripe.Int64(req.Plan.AmountCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval:      stripe.String(req.Plan.Interval),
						IntervalCount: stripe.Int64(1),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{"plan": string(req.Plan.ID)},
	}
	params.Context = ctx

	cs, err := g.client.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &billing.Session{ID: cs.ID, RedirectURL: cs.URL}, nil
}

// GetSession fetches a checkout session. A missing session maps to
// billing.ErrSessionNotFound.
func (g *Gateway) GetSession(ctx context.Context, id string) (*billing.Status, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := g.client.Get(id, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && (serr.Code == stripe.ErrorCodeResourceMissing || serr.HTTPStatusCode == http.StatusNotFound) {
			return nil, billing.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}
	return &billing.Status{
		SessionID:     cs.ID,
		PaymentStatus: string(cs.PaymentStatus),
		Paid:          cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}

type leveledLogger struct {
	logger *slog.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "stripe")
}
