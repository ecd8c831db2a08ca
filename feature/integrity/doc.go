// Package integrity provides health checks for the asset registry and the
// snapshot bucket it is fed from.
//
// # Checks Provided
//
//   - Structure: the snapshots/<source>/ and reports/ folders exist in the bucket.
//   - Schema: every registry table exists with the columns and types of its model.
//   - Columns: every enrichment column is provisioned on the assets table.
//   - Serials: no two live assets share a serial once case and whitespace are ignored.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/schema : Runs schema check.
//   - GET /integrity/columns : Runs enrichment column check (supports ?fix=true).
//   - GET /integrity/serials : Lists duplicate serials.
package integrity
