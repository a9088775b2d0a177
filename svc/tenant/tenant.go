// Package tenant implements the tenant registry: CRUD over tenant records,
// membership management with roles, and the origin lookup the resolver
// middleware depends on. Write methods run inside database transactions;
// read methods are explicitly excluded with a recorded justification.
package tenant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/slug"
	tenantpkg "github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// Tenant aliases the resolver-level record; the registry service is its
// source of truth.
type Tenant = tenantpkg.Tenant

// Storer persists tenants and memberships. Implementations read the active
// transaction from the request scope per call, so the same store works inside
// and outside a wrapped method.
type Storer interface {
	CreateTenant(ctx context.Context, t Tenant) error
	UpdateTenant(ctx context.Context, t Tenant) error
	DeleteTenant(ctx context.Context, id uuid.UUID) error
	GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error)
	GetTenantByOrigin(ctx context.Context, origin string) (*Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	ListTenantsByMember(ctx context.Context, email string) ([]Tenant, error)

	CreateMembership(ctx context.Context, m Membership) error
	DeleteMembership(ctx context.Context, tenantID uuid.UUID, email string) error
	GetMembership(ctx context.Context, tenantID uuid.UUID, email string) (*Membership, error)
	ListMemberships(ctx context.Context, tenantID uuid.UUID) ([]Membership, error)
}

// Service is the tenant registry. Transactional methods are bound at
// construction, so every call site goes through the same wrapped function.
type Service struct {
	store Storer
	reg   *txn.Service
	log   *slog.Logger

	createTenant func(ctx context.Context, p CreateTenantParams) (*Tenant, error)
	updateTenant func(ctx context.Context, p UpdateTenantParams) (*Tenant, error)
	deleteTenant func(ctx context.Context, id uuid.UUID) error
	addMember    func(ctx context.Context, p AddMemberParams) (*Membership, error)
	removeMember func(ctx context.Context, p RemoveMemberParams) error
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService wires the registry over the given store and transaction manager.
// Panics on nil dependencies; wiring errors must stop startup.
func NewService(store Storer, mgr *txn.Manager, opts ...Option) *Service {
	if store == nil {
		panic("tenant: service requires a store")
	}
	s := &Service{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	reg := txn.NewService("tenant", mgr, txn.WithLogger(s.log))
	s.reg = reg

	s.createTenant = txn.Wrap(reg, "CreateTenant", s.create)
	s.updateTenant = txn.Wrap(reg, "UpdateTenant", s.update)
	s.deleteTenant = txn.WrapVoid(reg, "DeleteTenant", s.store.DeleteTenant)
	s.addMember = txn.Wrap(reg, "AddMember", s.add)
	s.removeMember = txn.WrapVoid(reg, "RemoveMember", s.remove)

	txn.Exclude(reg, "GetTenant", "single read, no writes", s.store.GetTenantByID)
	txn.Exclude(reg, "GetTenantBySlug", "single read, no writes", s.store.GetTenantBySlug)
	txn.Exclude(reg, "GetByOrigin", "resolver hot path, single read per request", s.store.GetTenantByOrigin)
	txn.Exclude(reg, "ListTenants", "single read, no writes", s.store.ListTenants)
	txn.Exclude(reg, "ListMembers", "single read, no writes", s.store.ListMemberships)

	reg.Audit(
		"CreateTenant", "UpdateTenant", "DeleteTenant",
		"GetTenant", "GetTenantBySlug", "GetByOrigin", "ListTenants",
		"AddMember", "RemoveMember", "ListMembers",
	)

	return s
}

// Report exposes the transaction disposition of every registry method.
func (s *Service) Report() []txn.MethodReport { return s.reg.Report() }

// CreateTenantParams creates a tenant. Slug is derived from the name when
// empty. OwnerEmail, when set, becomes the first admin membership inside the
// same transaction.
type CreateTenantParams struct {
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	AllowedOrigins []string `json:"allowed_origins"`
	OwnerEmail     string   `json:"owner_email"`
}

// UpdateTenantParams updates a tenant. Nil fields keep their current value.
type UpdateTenantParams struct {
	ID             uuid.UUID `json:"-"`
	Name           *string   `json:"name"`
	AllowedOrigins *[]string `json:"allowed_origins"`
	Active         *bool     `json:"active"`
}

// CreateTenant registers a tenant, optionally with its first admin member.
func (s *Service) CreateTenant(ctx context.Context, p CreateTenantParams) (*Tenant, error) {
	return s.createTenant(ctx, p)
}

// UpdateTenant applies a partial update to an existing tenant.
func (s *Service) UpdateTenant(ctx context.Context, p UpdateTenantParams) (*Tenant, error) {
	return s.updateTenant(ctx, p)
}

// DeleteTenant removes a tenant and, through the schema, its memberships.
func (s *Service) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	return s.deleteTenant(ctx, id)
}

// GetTenant returns a tenant by ID.
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.store.GetTenantByID(ctx, id)
}

// GetTenantBySlug returns a tenant by its slug.
func (s *Service) GetTenantBySlug(ctx context.Context, sl string) (*Tenant, error) {
	return s.store.GetTenantBySlug(ctx, sl)
}

// ListTenants returns every registered tenant.
func (s *Service) ListTenants(ctx context.Context) ([]Tenant, error) {
	return s.store.ListTenants(ctx)
}

// ListTenantsForMember returns the tenants the given email belongs to.
func (s *Service) ListTenantsForMember(ctx context.Context, email string) ([]Tenant, error) {
	return s.store.ListTenantsByMember(ctx, normalizeEmail(email))
}

// GetByOrigin implements the resolver's provider contract: exact match of a
// normalized host against stored allowed origins.
func (s *Service) GetByOrigin(ctx context.Context, origin string) (*Tenant, error) {
	return s.store.GetTenantByOrigin(ctx, origin)
}

func (s *Service) create(ctx context.Context, p CreateTenantParams) (*Tenant, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, errors.Join(core.ErrUnprocessableEntity, ErrNameRequired)
	}

	sl := strings.TrimSpace(p.Slug)
	if sl == "" {
		sl = slug.Make(name)
	}
	if !slug.IsValid(sl) {
		return nil, errors.Join(core.ErrUnprocessableEntity, ErrInvalidSlug)
	}

	origins, err := normalizeOrigins(p.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	t := Tenant{
		ID:             uuid.New(),
		Name:           name,
		Slug:           sl,
		AllowedOrigins: origins,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	if email := normalizeEmail(p.OwnerEmail); email != "" {
		m := Membership{
			ID:        uuid.New(),
			TenantID:  t.ID,
			Email:     email,
			Role:      RoleTenantAdmin,
			CreatedAt: t.CreatedAt,
		}
		if err := s.store.CreateMembership(ctx, m); err != nil {
			return nil, err
		}
	}

	s.log.InfoContext(ctx, "tenant created",
		slog.String("tenant_id", t.ID.String()), slog.String("slug", t.Slug))
	return &t, nil
}

func (s *Service) update(ctx context.Context, p UpdateTenantParams) (*Tenant, error) {
	t, err := s.store.GetTenantByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, errors.Join(core.ErrUnprocessableEntity, ErrNameRequired)
		}
		t.Name = name
	}
	if p.AllowedOrigins != nil {
		origins, err := normalizeOrigins(*p.AllowedOrigins)
		if err != nil {
			return nil, err
		}
		t.AllowedOrigins = origins
	}
	if p.Active != nil {
		t.Active = *p.Active
	}

	if err := s.store.UpdateTenant(ctx, *t); err != nil {
		return nil, err
	}
	return t, nil
}

// normalizeOrigins lowercases and strips each origin to a bare hostname,
// dropping duplicates. Entries that normalize to nothing are rejected.
func normalizeOrigins(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, o := range raw {
		host := tenantpkg.NormalizeOrigin(o)
		if host == "" {
			return nil, errors.Join(core.ErrUnprocessableEntity, ErrInvalidOrigin)
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
