package auth

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantkit/core"
)

// Middleware authenticates requests carrying a Bearer token. A valid token
// puts the subject email into the context; a missing header passes through
// unauthenticated and downstream guards decide whether that is acceptable.
// A present but invalid token is always rejected.
func (s *Service) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				core.WriteError(w, r, core.ErrUnauthorized)
				return
			}

			email, err := s.VerifyToken(r.Context(), strings.TrimSpace(raw))
			if err != nil {
				core.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
		})
	}
}

// RequireUser rejects requests with no authenticated user. Mount it after
// Middleware on routes that must not run anonymously.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := EmailFromContext(r.Context()); !ok {
				core.WriteError(w, r, core.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
