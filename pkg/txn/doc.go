// Package txn makes "every write runs inside a database transaction" the
// default for a whole service, with an explicit, auditable escape hatch.
//
// A Manager owns one logical connection (Postgres pool, Mongo client) and
// keeps the active transaction handle in the request scope, so nested calls
// across services share one transaction without parameter threading.
//
// Service methods are wrapped at construction time, not discovered through
// reflection: each method is a plain function composed with the transaction
// policy when the service is built, and the wrapper is invisible at call
// sites.
//
//	reg := txn.NewService("project", manager)
//	s := &Service{store: store}
//	s.create = txn.Wrap(reg, "CreateProject", s.createProject)
//	s.list = txn.Exclude(reg, "ListProjects", "read-only, no writes performed", s.listProjects)
//
// Propagation policies follow the usual semantics: Required joins the
// transaction already in scope or opens one, RequiresNew always opens its
// own, Suppress hides any active transaction for the duration of the call.
// Only the invocation that opened a transaction commits or rolls it back;
// joined calls simply propagate their error and leave the outcome to the
// owner.
//
// Misregistration (empty method name, nil function, duplicate registration,
// exclusion without a justification) panics at service construction. A
// wiring mistake is a fatal startup condition, never a per-request one.
package txn
