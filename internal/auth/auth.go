// Package auth resolves bearer tokens to the signed-in user.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when no resolver accepts a token.
var ErrInvalidToken = errors.New("invalid bearer token")

// Resolver maps a bearer token to a user ID.
type Resolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, token string) (string, error)

func (f ResolverFunc) ResolveUser(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// Chain tries each resolver in order and returns the first user it gets.
func Chain(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(ctx context.Context, token string) (string, error) {
		if token == "" {
			return "", ErrInvalidToken
		}
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			userID, err := r.ResolveUser(ctx, token)
			if err == nil && userID != "" {
				return userID, nil
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
		return "", ErrInvalidToken
	})
}

// Static resolves every token to one user. It backs single-user local runs
// with authentication disabled.
func Static(userID string) Resolver {
	return ResolverFunc(func(context.Context, string) (string, error) {
		return userID, nil
	})
}
