// Package billing starts hosted checkout for subscription plans and reports
// their payment status. Payment status never gates collection operations.
package billing

// PlanID identifies a subscription plan.
type PlanID string

const (
	PlanPro     PlanID = "pro"
	PlanProPlus PlanID = "proPlus"
)

// Plan is a fixed monthly subscription price.
type Plan struct {
	ID          PlanID `json:"id"`
	ProductName string `json:"productName"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval"`
}

var plans = map[PlanID]Plan{
	PlanPro: {
		ID:          PlanPro,
		ProductName: "Pro subscription",
		AmountCents: 999,
		Currency:    "usd",
		Interval:    "month",
	},
	PlanProPlus: {
		ID:          PlanProPlus,
		ProductName: "Pro Plus subscription",
		AmountCents: 1999,
		Currency:    "usd",
		Interval:    "month",
	},
}

// LookupPlan returns the plan for id.
func LookupPlan(id string) (Plan, bool) {
	p, ok := plans[PlanID(id)]
	return p, ok
}

// SessionRequest is what a gateway needs to open a hosted checkout page.
type SessionRequest struct {
	UserID     string
	Plan       Plan
	SuccessURL string
	CancelURL  string
}

// Session is an opened hosted checkout.
type Session struct {
	ID          string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}

// Status is the display-only state of a checkout session.
type Status struct {
	SessionID     string `json:"sessionId"`
	PaymentStatus string `json:"paymentStatus"`
	Paid          bool   `json:"paid"`
}
