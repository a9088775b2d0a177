package tenant

import "errors"

var (
	// ErrTenantNotFound is returned by providers when no tenant matches.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantRequired is returned when an operation that must be scoped to
	// a tenant runs with no tenant resolved. Surfaced as a 403-equivalent;
	// tenant-scoped data access fails closed rather than returning global data.
	ErrTenantRequired = errors.New("tenant required")

	// ErrInactiveTenant is returned when a resolved tenant is deactivated.
	ErrInactiveTenant = errors.New("tenant is inactive")
)
