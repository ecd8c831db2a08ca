// Package sync runs full syncs of an inventory source into the asset registry.
//
// A run loads a source snapshot (request body, local file or the latest
// object under snapshots/<source>/), decodes it into device payloads and
// fans them out in chunks over a batch.Dispatcher. Each chunk goes through a
// Processor: normalize, reconcile and, when an agent snapshot is available,
// enrich inline. huntress snapshots skip reconciliation and run the
// standalone enrichment over every asset instead.
//
// Every run is persisted as a registry.SyncRun and its report is uploaded
// to reports/<source>/<run id>.json.
//
// # Routes
//
//	GET  /sync/runs       recent runs (?source=, ?limit=)
//	GET  /sync/runs/:id   one run with per-chunk summaries
//	POST /sync/:source    run a sync (body = snapshot, or ?key=)
package sync
