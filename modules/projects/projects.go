// Package projects exposes tenant-scoped project CRUD over HTTP. The routes
// are mounted behind the tenant gate, so every handler runs with a resolved
// tenant; the stores still re-check the context on each call.
package projects

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/binder"
	projectsvc "github.com/dmitrymomot/tenantkit/svc/project"
)

// Module serves the project endpoints.
type Module struct {
	svc *projectsvc.Service
}

// New creates the projects module over the given service.
func New(svc *projectsvc.Service) *Module {
	if svc == nil {
		panic("projects module requires a service")
	}
	return &Module{svc: svc}
}

// Handle returns the module router.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", m.list)
	r.Post("/", m.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", m.get)
		r.Patch("/", m.update)
		r.Delete("/", m.remove)
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

func (m *Module) list(w http.ResponseWriter, r *http.Request) {
	out, err := m.svc.ListProjects(r.Context())
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, out)
}

func (m *Module) create(w http.ResponseWriter, r *http.Request) {
	var params projectsvc.CreateProjectParams
	if err := binder.JSON(r, &params); err != nil {
		core.WriteError(w, r, errors.Join(core.ErrBadRequest, err))
		return
	}

	p, err := m.svc.CreateProject(r.Context(), params)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, p)
}

func (m *Module) get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	p, err := m.svc.GetProject(r.Context(), id)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, p)
}

func (m *Module) update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	var params projectsvc.UpdateProjectParams
	if err := binder.JSON(r, &params); err != nil {
		core.WriteError(w, r, errors.Join(core.ErrBadRequest, err))
		return
	}
	params.ID = id

	p, err := m.svc.UpdateProject(r.Context(), params)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, p)
}

func (m *Module) remove(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}

	if err := m.svc.DeleteProject(r.Context(), id); err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteNoContent(w)
}
