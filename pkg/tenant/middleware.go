package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ResolveMiddleware creates HTTP middleware that decides once per request
// which tenant the request belongs to and stores that decision in the request
// scope. The registry is read from the provider on every request, so tenant
// changes take effect on the next request with no invalidation protocol.
//
// An unmatched origin is not an error here: the request continues with no
// tenant and the RequireTenant gate decides whether it may proceed.
func ResolveMiddleware(provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler:  defaultErrorHandler,
		requireActive: true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			for _, candidate := range CandidateHosts(r) {
				host := NormalizeOrigin(candidate)
				if host == "" {
					continue
				}

				t, err := provider.GetByOrigin(ctx, host)
				if err != nil {
					if errors.Is(err, ErrTenantNotFound) {
						continue
					}
					cfg.logger.ErrorContext(ctx, "tenant resolution failed",
						slog.String("host", host), slog.Any("error", err))
					cfg.errorHandler(w, r, err)
					return
				}

				if cfg.requireActive && !t.Active {
					continue
				}

				next.ServeHTTP(w, r.WithContext(WithTenant(ctx, t)))
				return
			}

			// Unregistered origin: proceed tenant-free, the gate decides.
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant creates the fail-closed gate: requests with no resolved
// tenant receive a 403 unless the path is on the allow-list. No downstream
// handler runs for rejected requests.
func RequireTenant(opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{errorHandler: defaultErrorHandler}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			for _, allow := range cfg.allowPaths {
				// Match on segment boundaries only: "/auth" admits "/auth"
				// and "/auth/login" but never "/authors".
				if r.URL.Path == allow || strings.HasPrefix(r.URL.Path, allow+"/") {
					next.ServeHTTP(w, r)
					return
				}
			}

			cfg.errorHandler(w, r, ErrTenantRequired)
		})
	}
}
