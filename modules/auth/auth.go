// Package auth exposes registration and login over HTTP. Both endpoints run
// outside tenant resolution; a user exists before any tenant does.
package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/binder"
	authsvc "github.com/dmitrymomot/tenantkit/svc/auth"
)

// Module serves the auth endpoints.
type Module struct {
	svc *authsvc.Service
}

// New creates the auth module over the given service.
func New(svc *authsvc.Service) *Module {
	if svc == nil {
		panic("auth module requires a service")
	}
	return &Module{svc: svc}
}

// Handle returns the module router.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", m.register)
	r.Post("/login", m.login)
	return r
}

func (m *Module) register(w http.ResponseWriter, r *http.Request) {
	var creds authsvc.Credentials
	if err := binder.JSON(r, &creds); err != nil {
		core.WriteError(w, r, errors.Join(core.ErrBadRequest, err))
		return
	}

	user, err := m.svc.Register(r.Context(), creds)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, user)
}

func (m *Module) login(w http.ResponseWriter, r *http.Request) {
	var creds authsvc.Credentials
	if err := binder.JSON(r, &creds); err != nil {
		core.WriteError(w, r, errors.Join(core.ErrBadRequest, err))
		return
	}

	token, err := m.svc.Login(r.Context(), creds)
	if err != nil {
		core.WriteError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, token)
}
