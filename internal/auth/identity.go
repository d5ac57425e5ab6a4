package auth

import (
	"context"
	"time"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    int64
	Username  string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
