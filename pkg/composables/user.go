package composables

import (
	"context"
	"errors"

	"github.com/shiftopia/shiftopia/pkg/authz"
	"github.com/shiftopia/shiftopia/pkg/constants"
)

var ErrNoUser = errors.New("no user found in context")

// WithUser attaches the authenticated caller's claims to the context.
func WithUser(ctx context.Context, claims *authz.Claims) context.Context {
	return context.WithValue(ctx, constants.UserKey, claims)
}

// UseUser returns the authenticated caller's claims.
func UseUser(ctx context.Context) (*authz.Claims, error) {
	claims, ok := ctx.Value(constants.UserKey).(*authz.Claims)
	if !ok {
		return nil, ErrNoUser
	}
	return claims, nil
}
