// Package tenants exposes tenant and membership management over HTTP.
// Management routes address tenants by ID and work without origin
// resolution, so a platform operator can administer tenants from anywhere;
// destructive routes sit behind the admin guard.
package tenants

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/binder"
	tenantpkg "github.com/dmitrymomot/tenantkit/pkg/tenant"
	authsvc "github.com/dmitrymomot/tenantkit/svc/auth"
	tenantsvc "github.com/dmitrymomot/tenantkit/svc/tenant"
)

// Module serves the tenant management endpoints.
type Module struct {
	svc *tenantsvc.Service
}

// New creates the tenants module over the given service.
func New(svc *tenantsvc.Service) *Module {
	if svc == nil {
		panic("tenants module requires a service")
	}
	return &Module{svc: svc}
}

// Handle returns the module router. Every route requires an authenticated
// user; routes that change a tenant additionally require the admin role on
// that tenant.
func (m *Module) Handle() http.Handler {
	admin := m.svc.RequireAdmin(authsvc.EmailFromContext)

	r := chi.NewRouter()
	r.Use(authsvc.RequireUser())

	r.Post("/", m.create)
	r.Get("/", m.listMine)
	r.Get("/current", m.current)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", m.get)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Patch("/", m.update)
			r.Delete("/", m.remove)

			r.Get("/members", m.listMembers)
			r.Post("/members", m.addMember)
			r.Delete("/members/{email}", m.removeMember)
		})
	})

	return r
}

func urlID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.UUID{}, errors.Join(core.ErrBadRequest, err)
	}
	return id, nil
}

func (m *Module) create(w http.ResponseWriter, r *http.Request) {
	var params tenantsvc.CreateTenantParams
	if err := binder.JSON(r, &params); err != nil {
		core.WriteError(w, r, errors.Join(core.ErrBadRequest, err))
		return
	}

	// The creator becomes the first admin regardless of the payload.
	if email, ok := authsvc.EmailFromContext(r.Context()); ok {
		params.OwnerEmail = email
	}

	t, err := m.svc.CreateTenant(r.Context(), params)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, t)
}

func (m *Module) listMine(w http.ResponseWriter, r *http.Request) {
	email, _ := authsvc.EmailFromContext(r.Context())
	out, err := m.svc.ListTenantsForMember(r.Context(), email)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, out)
}

// current returns the tenant resolved from the request origin, when the
// request came through the resolution middleware.
func (m *Module) current(w http.ResponseWriter, r *http.Request) {
	t, ok := tenantpkg.FromContext(r.Context())
	if !ok {
		core.WriteError(w, r, tenantpkg.ErrTenantRequired)
		return
	}
	core.WriteJSON(w, http.StatusOK, t)
}

func (m *Module) get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	t, err := m.svc.GetTenant(r.Context(), id)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, t)
}

func (m *Module) update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	var params tenantsvc.UpdateTenantParams
	if err := binder.JSON(r, &params); err != nil {
		core.WriteError(w, r, errors.Join(core.ErrBadRequest, err))
		return
	}
	params.ID = id

	t, err := m.svc.UpdateTenant(r.Context(), params)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, t)
}

func (m *Module) remove(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	if err := m.svc.DeleteTenant(r.Context(), id); err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteNoContent(w)
}

func (m *Module) listMembers(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	members, err := m.svc.ListMembers(r.Context(), id)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, members)
}

func (m *Module) addMember(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	var params tenantsvc.AddMemberParams
	if err := binder.JSON(r, &params); err != nil {
		core.WriteError(w, r, errors.Join(core.ErrBadRequest, err))
		return
	}
	params.TenantID = id

	member, err := m.svc.AddMember(r.Context(), params)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, member)
}

func (m *Module) removeMember(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	err = m.svc.RemoveMember(r.Context(), tenantsvc.RemoveMemberParams{
		TenantID: id,
		Email:    chi.URLParam(r, "email"),
	})
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteNoContent(w)
}
