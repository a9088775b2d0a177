// Package tenant provides multi-tenancy support through origin-based tenant
// resolution and request-scoped tenant context.
//
// The package is built around three core pieces:
//
//  1. Provider - loads tenant records from a data source by normalized origin
//  2. ResolveMiddleware - decides once per request which tenant (if any) the
//     request belongs to, from host/origin headers, and stores the decision in
//     the request scope
//  3. RequireTenant - a separate fail-closed gate that rejects requests with
//     no resolved tenant unless the path is explicitly allow-listed
//
// Resolution matches the candidate host against each tenant's allowed origins
// by exact normalized-host comparison only. There is no substring, wildcard,
// or parent-domain matching: "a.example.com" never resolves a tenant whose
// allowed origin is "example.com".
//
// The candidate host comes from exactly one source per request. A trusted
// proxy-forwarded page origin header takes precedence over the Origin header,
// which takes precedence over the transport-level Host. Sources are never
// merged, to avoid cross-tenant origin confusion behind proxies.
//
// # Usage
//
//	router.Use(scope.Middleware())
//	router.Use(tenant.ResolveMiddleware(provider))
//	router.Use(tenant.RequireTenant(
//		tenant.WithAllowPaths("/auth", "/healthz"),
//	))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		t, ok := tenant.FromContext(r.Context())
//		...
//	}
//
// The two-step design (resolve, then gate) lets auth and health endpoints
// operate without a tenant while every tenant-owned-data endpoint stays
// unreachable without one.
package tenant
