package tenant

import (
	"errors"

	"github.com/dmitrymomot/tenantkit/core"
)

var (
	// ErrNameRequired is returned when a tenant name is empty or blank.
	ErrNameRequired = errors.New("tenant name is required")
	// ErrInvalidSlug is returned when a slug fails validation.
	ErrInvalidSlug = errors.New("tenant slug is invalid")
	// ErrInvalidOrigin is returned when an allowed origin normalizes to nothing.
	ErrInvalidOrigin = errors.New("allowed origin is invalid")
	// ErrEmailRequired is returned when a membership email is empty.
	ErrEmailRequired = errors.New("member email is required")
	// ErrInvalidRole is returned when a membership role is not recognized.
	ErrInvalidRole = errors.New("membership role is invalid")
	// ErrMembershipNotFound is returned when no membership matches.
	ErrMembershipNotFound = errors.Join(core.ErrNotFound, errors.New("membership not found"))
	// ErrLastAdmin is returned when removing a member would leave the tenant
	// without any admin.
	ErrLastAdmin = errors.New("cannot remove the last tenant admin")
	// ErrNotTenantAdmin is returned when the caller lacks the admin role.
	ErrNotTenantAdmin = errors.New("tenant admin role required")
)
