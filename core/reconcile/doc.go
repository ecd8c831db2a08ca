// Package reconcile turns normalized device records into canonical assets.
//
// A Resolver maps natural keys (manufacturer, model, category, status,
// location) to reference ids through an injected cache.Cache. Every device
// is written inside its own transaction: the Reconciler opens a Scope on the
// transaction, resolves references through it, then creates, updates or
// restores the asset keyed by serial number. Ids created inside a scope are
// only published to the shared cache once the transaction commits.
//
// Concurrent workers may race on the same natural key or serial. The
// database unique indexes decide the winner: inserts use ON CONFLICT DO
// NOTHING and a losing writer re-reads the committed row.
//
// # Usage Example
//
//	resolver := reconcile.NewResolver(cache.NewMemory(time.Hour), time.Hour, overrides, logger)
//	rec := reconcile.NewReconciler(db, resolver, registry.NewUsers(db), logger)
//
//	res, err := rec.Reconcile(ctx, record)
//	if device.IsSkip(err) {
//	    // no serial number
//	}
package reconcile
