// Package pg provides the PostgreSQL side of the storage layer: pooled
// connectivity with retry, goose schema migrations, health checks, error
// classification helpers, and the transaction adapter that plugs a pgx pool
// into the txn manager.
//
// Stores obtain their executor per call through Querier, which returns the
// transaction active in the request scope when one exists and the pool
// otherwise. That keeps transaction participation invisible at query sites.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	...
//	manager := txn.NewManager("postgres", pg.NewTxBeginner(pool))
//
//	// inside a store method
//	db := pg.Querier(ctx, manager, pool)
//	row := db.QueryRow(ctx, query, args...)
package pg
