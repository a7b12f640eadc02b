package auth

import "context"

type subjectContextKey struct{}
type tokenContextKey struct{}

// Identity is what the authn layer attaches to the request context
// after verifying an access token.
type Identity struct {
	SubjectID string
	Roles     []string
}

// ContextWithIdentity stores the verified identity in the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, id)
}

// IdentityFromContext extracts the verified identity, if present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(subjectContextKey{}).(Identity)
	if !ok || v.SubjectID == "" {
		return Identity{}, false
	}
	return v, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
