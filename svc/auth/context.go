package auth

import "context"

type ctxKey struct{}

// WithEmail stores the authenticated email in the context. Identity is
// immutable for the request, so a plain context value is enough here.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKey{}, email)
}

// EmailFromContext retrieves the authenticated email from the context.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(ctxKey{}).(string)
	return email, ok && email != ""
}
