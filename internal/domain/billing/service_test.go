package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/flashdeck/internal/domain"
	"github.com/rpggio/flashdeck/internal/domain/billing"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/stretchr/testify/require"
)

type gatewayStub struct {
	createFn func(context.Context, billing.SessionRequest) (*billing.Session, error)
	getFn    func(context.Context, string) (*billing.Status, error)
}

func (g gatewayStub) CreateSession(ctx context.Context, req billing.SessionRequest) (*billing.Session, error) {
	return g.createFn(ctx, req)
}

func (g gatewayStub) GetSession(ctx context.Context, id string) (*billing.Status, error) {
	return g.getFn(ctx, id)
}

func TestCheckout(t *testing.T) {
	var got billing.SessionRequest
	svc := billing.NewService(gatewayStub{createFn: func(_ context.Context, req billing.SessionRequest) (*billing.Session, error) {
		got = req
		return &billing.Session{ID: "cs_1", RedirectURL: "https://pay.example/cs_1"}, nil
	}}, "https://app.example", nil)

	sess, err := svc.Checkout(context.Background(), "user1", "proPlus")
	require.NoError(t, err)
	require.Equal(t, "cs_1", sess.ID)

	require.Equal(t, "user1", got.UserID)
	require.Equal(t, int64(1999), got.Plan.AmountCents)
	require.Equal(t, "Pro Plus subscription", got.Plan.ProductName)
	require.Equal(t, "https://app.example/result?session_id={CHECKOUT_SESSION_ID}", got.SuccessURL)
	require.Equal(t, got.SuccessURL, got.CancelURL)
}

func TestCheckout_InvalidPlan(t *testing.T) {
	svc := billing.NewService(gatewayStub{}, "", nil)

	_, err := svc.Checkout(context.Background(), "user1", "enterprise")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Checkout(context.Background(), "", "pro")
	require.ErrorIs(t, err, collection.ErrUnauthenticated)
}

func TestCheckout_GatewayFailure(t *testing.T) {
	svc := billing.NewService(gatewayStub{createFn: func(context.Context, billing.SessionRequest) (*billing.Session, error) {
		return nil, errors.New("card network down")
	}}, "", nil)

	_, err := svc.Checkout(context.Background(), "user1", "pro")
	require.ErrorIs(t, err, billing.ErrCheckoutFailed)
}

func TestStatus(t *testing.T) {
	svc := billing.NewService(gatewayStub{getFn: func(_ context.Context, id string) (*billing.Status, error) {
		if id == "missing" {
			return nil, billing.ErrSessionNotFound
		}
		return &billing.Status{SessionID: id, PaymentStatus: "paid", Paid: true}, nil
	}}, "", nil)

	st, err := svc.Status(context.Background(), "cs_1")
	require.NoError(t, err)
	require.True(t, st.Paid)

	_, err = svc.Status(context.Background(), "missing")
	require.ErrorIs(t, err, billing.ErrSessionNotFound)

	_, err = svc.Status(context.Background(), " ")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestLookupPlan(t *testing.T) {
	p, ok := billing.LookupPlan("pro")
	require.True(t, ok)
	require.Equal(t, int64(999), p.AmountCents)
	require.Equal(t, "month", p.Interval)

	_, ok = billing.LookupPlan("Pro")
	require.False(t, ok)
}
