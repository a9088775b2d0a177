package scope

import "net/http"

// Middleware attaches a fresh scope to every request. It must run before any
// middleware that reads or writes scope values (tenant resolution, transaction
// management). Each request gets its own scope; concurrent requests never
// observe each other's values.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), New())))
		})
	}
}
