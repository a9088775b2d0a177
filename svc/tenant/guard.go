package tenant

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/core"
	tenantpkg "github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// IdentityFunc extracts the authenticated user's email from the request
// context. The auth layer supplies an implementation.
type IdentityFunc func(ctx context.Context) (string, bool)

// RequireAdmin creates middleware that lets a request through only when the
// authenticated user holds the admin role on the target tenant. The tenant is
// the one resolved into the request scope, or the {id} route parameter on
// management routes that run outside resolution.
func (s *Service) RequireAdmin(identity IdentityFunc) func(http.Handler) http.Handler {
	if identity == nil {
		panic("tenant: RequireAdmin requires an identity extractor")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			email, ok := identity(ctx)
			if !ok {
				core.WriteError(w, r, core.ErrUnauthorized)
				return
			}

			id, ok := tenantpkg.IDFromContext(ctx)
			if !ok {
				parsed, err := uuid.Parse(chi.URLParam(r, "id"))
				if err != nil {
					core.WriteError(w, r, tenantpkg.ErrTenantRequired)
					return
				}
				id = parsed
			}

			m, err := s.store.GetMembership(ctx, id, email)
			switch {
			case errors.Is(err, ErrMembershipNotFound):
				core.WriteError(w, r, errors.Join(core.ErrForbidden, ErrNotTenantAdmin))
				return
			case err != nil:
				core.WriteError(w, r, err)
				return
			case m.Role != RoleTenantAdmin:
				core.WriteError(w, r, errors.Join(core.ErrForbidden, ErrNotTenantAdmin))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
