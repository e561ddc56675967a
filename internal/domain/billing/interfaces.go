package billing

import "context"

// Gateway is the hosted checkout provider.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Status, error)
}
