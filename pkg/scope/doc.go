// Package scope provides a per-request mutable key/value store carried on
// context.Context.
//
// A scope is created once per request (or background job) and travels with the
// context through the whole call graph. Unlike plain context.WithValue, values
// written into a scope after it was attached are visible to every function
// sharing that scope, including callers that run after the writer returns.
// This is what carries the resolved tenant and the active transaction handle
// across a request without explicit parameter threading.
//
// # Usage
//
//	import "github.com/dmitrymomot/tenantkit/pkg/scope"
//
//	// Attach a fresh scope per HTTP request
//	router.Use(scope.Middleware())
//
//	// Write and read values anywhere downstream
//	scope.Set(ctx, "tenant", tenantID)
//	v, ok := scope.Get(ctx, "tenant")
//
// Calling Get or Set outside an active scope is not an error: Get reports
// false and Set is a no-op reporting false. Downstream code must treat "no
// scope" the same as "value not set" and fail closed where that matters.
//
// Each request gets its own isolated scope instance; scopes are never shared
// or reused across requests.
package scope
