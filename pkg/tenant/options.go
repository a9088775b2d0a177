package tenant

import (
	"log/slog"
	"net/http"
)

// ErrorHandler handles provider failures during tenant resolution and gate
// rejections.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// config holds middleware configuration.
type config struct {
	errorHandler  ErrorHandler
	allowPaths    []string
	requireActive bool
	logger        *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithAllowPaths sets path prefixes the RequireTenant gate lets through
// without a resolved tenant (auth endpoints, health checks).
func WithAllowPaths(paths ...string) Option {
	return func(c *config) {
		c.allowPaths = append(c.allowPaths, paths...)
	}
}

// WithRequireActive controls whether deactivated tenants resolve. Enabled by
// default; a matched but inactive tenant then counts as unresolved.
func WithRequireActive(require bool) Option {
	return func(c *config) {
		c.requireActive = require
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch err {
	case ErrTenantRequired:
		http.Error(w, "tenant required", http.StatusForbidden)
	case ErrInactiveTenant:
		http.Error(w, "tenant is inactive", http.StatusForbidden)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
