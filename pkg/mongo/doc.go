// Package mongo provides the document-store side of the storage layer:
// client construction with retry, health checks, and the session adapter that
// plugs a Mongo client into the txn manager.
//
// Stores bind their context per call through ContextWithTx, which attaches
// the session active in the request scope so collection operations join the
// open transaction; without one the context passes through unchanged.
//
//	client, err := mongo.New(ctx, cfg)
//	...
//	manager := txn.NewManager("mongo", mongo.NewTxBeginner(client))
//
//	// inside a store method
//	ctx = mongo.ContextWithTx(ctx, manager)
//	_, err := collection.InsertOne(ctx, doc)
package mongo
