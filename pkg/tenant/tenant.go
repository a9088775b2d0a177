package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated customer organization. AllowedOrigins lists
// the normalized hostnames authorized to resolve to this tenant; entries are
// compared by exact match only.
type Tenant struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	AllowedOrigins []string  `json:"allowed_origins"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Provider loads tenant records for request resolution. Implementations must
// match origins exactly against stored allowed origins; the caller passes
// already-normalized hostnames.
type Provider interface {
	// GetByOrigin retrieves the tenant whose allowed origins contain the
	// given normalized host. Returns ErrTenantNotFound when no tenant
	// matches; an unregistered origin is a supported outcome, not a fault.
	GetByOrigin(ctx context.Context, origin string) (*Tenant, error)
}
