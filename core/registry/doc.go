// Package registry defines the asset registry schema and its small stores.
//
// Reference entities (manufacturers, models, categories) are created lazily by syncs
// and never deleted. Status labels and locations are only read. Assets are soft
// deleted, and their serial stays unique across deleted rows.
//
// ProvisionColumns adds the nullable text columns the enrichment merger writes to.
// Runs keeps the history of sync runs with their per-chunk summaries.
package registry
