package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/scope"
)

// scopeKey is the key under which the resolved tenant lives in the request
// scope. A private constant keeps other packages from touching the slot.
const scopeKey = "tenant.resolved"

// WithTenant stores the resolved tenant in the request scope, attaching a
// fresh scope when the context has none. The first non-nil tenant wins: once
// resolution has decided, the decision is immutable for the request.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	if !scope.Active(ctx) {
		ctx = scope.WithScope(ctx, scope.New())
	}
	scope.SetOnce(ctx, scopeKey, t)
	return ctx
}

// FromContext retrieves the resolved tenant. Reports false when resolution
// did not run, matched no tenant, or no scope is active.
func FromContext(ctx context.Context) (*Tenant, bool) {
	v, ok := scope.Get(ctx, scopeKey)
	if !ok {
		return nil, false
	}
	t, ok := v.(*Tenant)
	return t, ok && t != nil
}

// IDFromContext retrieves just the tenant ID from the context.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return t.ID, true
}

// RequiredID returns the current tenant ID or ErrTenantRequired when no
// tenant is resolved. Tenant-scoped stores call this at query time so that
// data access fails closed instead of silently going unscoped.
func RequiredID(ctx context.Context) (uuid.UUID, error) {
	id, ok := IDFromContext(ctx)
	if !ok {
		return uuid.UUID{}, ErrTenantRequired
	}
	return id, nil
}

// LoggerExtractor returns a function that enriches log records with the
// resolved tenant ID.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return logger.TenantID(id.String()), true
		}
		return slog.Attr{}, false
	}
}
