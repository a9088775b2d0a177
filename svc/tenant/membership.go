package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/core"
)

// Role names a member's authorization level within a tenant.
type Role string

const (
	// RoleTenantAdmin may manage the tenant record and its members.
	RoleTenantAdmin Role = "TENANT_ADMIN"
	// RoleMember may use the tenant but not administer it.
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	return r == RoleTenantAdmin || r == RoleMember
}

// Membership links a user email to a tenant with a role. Emails are stored
// lowercased; one membership per (tenant, email) pair.
type Membership struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AddMemberParams adds a member to a tenant.
type AddMemberParams struct {
	TenantID uuid.UUID `json:"-"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}

// RemoveMemberParams removes a member from a tenant.
type RemoveMemberParams struct {
	TenantID uuid.UUID `json:"-"`
	Email    string    `json:"email"`
}

// AddMember attaches the email to the tenant with the given role.
func (s *Service) AddMember(ctx context.Context, p AddMemberParams) (*Membership, error) {
	return s.addMember(ctx, p)
}

// RemoveMember detaches the email from the tenant. Removing the last admin
// is rejected so a tenant can never lock itself out.
func (s *Service) RemoveMember(ctx context.Context, p RemoveMemberParams) error {
	return s.removeMember(ctx, p)
}

// ListMembers returns the tenant's memberships.
func (s *Service) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]Membership, error) {
	return s.store.ListMemberships(ctx, tenantID)
}

// GetMember returns a single membership by tenant and email.
func (s *Service) GetMember(ctx context.Context, tenantID uuid.UUID, email string) (*Membership, error) {
	return s.store.GetMembership(ctx, tenantID, normalizeEmail(email))
}

func (s *Service) add(ctx context.Context, p AddMemberParams) (*Membership, error) {
	email := normalizeEmail(p.Email)
	if email == "" {
		return nil, errors.Join(core.ErrUnprocessableEntity, ErrEmailRequired)
	}
	role := Role(strings.ToUpper(strings.TrimSpace(string(p.Role))))
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() {
		return nil, errors.Join(core.ErrUnprocessableEntity, ErrInvalidRole)
	}

	// The tenant must exist; a foreign-key violation would say the same
	// thing less clearly.
	if _, err := s.store.GetTenantByID(ctx, p.TenantID); err != nil {
		return nil, err
	}

	m := Membership{
		ID:        uuid.New(),
		TenantID:  p.TenantID,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateMembership(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) remove(ctx context.Context, p RemoveMemberParams) error {
	email := normalizeEmail(p.Email)
	if email == "" {
		return errors.Join(core.ErrUnprocessableEntity, ErrEmailRequired)
	}

	m, err := s.store.GetMembership(ctx, p.TenantID, email)
	if err != nil {
		return err
	}

	if m.Role == RoleTenantAdmin {
		members, err := s.store.ListMemberships(ctx, p.TenantID)
		if err != nil {
			return err
		}
		admins := 0
		for _, other := range members {
			if other.Role == RoleTenantAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return errors.Join(core.ErrConflict, ErrLastAdmin)
		}
	}

	return s.store.DeleteMembership(ctx, p.TenantID, email)
}
