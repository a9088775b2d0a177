// Package project implements a tenant-owned resource on top of the
// tenant-scoping data access layer. Stores derive the owning tenant from the
// request context on every call; a request without a resolved tenant cannot
// touch project data at all.
package project

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusArchived
}

// Project is a tenant-owned resource. TenantID is always derived from the
// request context by the store; values supplied by callers are ignored.
type Project struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Storer persists projects scoped to the tenant resolved in the request
// context. Every method fails with the tenant-required error when no tenant
// is resolved, and never returns another tenant's rows.
type Storer interface {
	CreateProject(ctx context.Context, p Project) (*Project, error)
	UpdateProject(ctx context.Context, p Project) (*Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
}

// Service exposes project CRUD with transactional writes.
type Service struct {
	store Storer
	reg   *txn.Service
	log   *slog.Logger

	createProject func(ctx context.Context, p CreateProjectParams) (*Project, error)
	updateProject func(ctx context.Context, p UpdateProjectParams) (*Project, error)
	deleteProject func(ctx context.Context, id uuid.UUID) error
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

// NewService wires project CRUD over the given store and transaction manager.
func NewService(store Storer, mgr *txn.Manager, opts ...Option) *Service {
	if store == nil {
		panic("project: service requires a store")
	}
	s := &Service{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	reg := txn.NewService("project", mgr, txn.WithLogger(s.log))
	s.reg = reg

	s.createProject = txn.Wrap(reg, "CreateProject", s.create)
	s.updateProject = txn.Wrap(reg, "UpdateProject", s.update)
	s.deleteProject = txn.WrapVoid(reg, "DeleteProject", s.store.DeleteProject)

	txn.Exclude(reg, "GetProject", "single read, no writes", s.store.GetProject)
	txn.Exclude(reg, "ListProjects", "single read, no writes", s.store.ListProjects)

	reg.Audit("CreateProject", "UpdateProject", "DeleteProject", "GetProject", "ListProjects")

	return s
}

// Report exposes the transaction disposition of every project method.
func (s *Service) Report() []txn.MethodReport { return s.reg.Report() }

// CreateProjectParams creates a project under the current tenant.
type CreateProjectParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectParams updates a project. Nil fields keep their current value.
type UpdateProjectParams struct {
	ID          uuid.UUID `json:"-"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Status      *Status   `json:"status"`
}

// CreateProject creates a project owned by the tenant in the request context.
func (s *Service) CreateProject(ctx context.Context, p CreateProjectParams) (*Project, error) {
	return s.createProject(ctx, p)
}

// UpdateProject applies a partial update to a project of the current tenant.
func (s *Service) UpdateProject(ctx context.Context, p UpdateProjectParams) (*Project, error) {
	return s.updateProject(ctx, p)
}

// DeleteProject removes a project of the current tenant.
func (s *Service) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return s.deleteProject(ctx, id)
}

// GetProject returns a project of the current tenant by ID.
func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.store.GetProject(ctx, id)
}

// ListProjects returns the current tenant's projects.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	return s.store.ListProjects(ctx)
}

func (s *Service) create(ctx context.Context, p CreateProjectParams) (*Project, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, errors.Join(core.ErrUnprocessableEntity, ErrNameRequired)
	}

	now := time.Now().UTC()
	return s.store.CreateProject(ctx, Project{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(p.Description),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *Service) update(ctx context.Context, p UpdateProjectParams) (*Project, error) {
	current, err := s.store.GetProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, errors.Join(core.ErrUnprocessableEntity, ErrNameRequired)
		}
		current.Name = name
	}
	if p.Description != nil {
		current.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, errors.Join(core.ErrUnprocessableEntity, ErrInvalidStatus)
		}
		current.Status = *p.Status
	}
	current.UpdatedAt = time.Now().UTC()

	return s.store.UpdateProject(ctx, *current)
}
