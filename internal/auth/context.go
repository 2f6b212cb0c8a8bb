package auth

import "context"

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the identity attached by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok && identity.UserID != ""
}
