// Package batch splits work into ordered chunks and runs them on a bounded
// worker pool.
//
// Each chunk gets its own wall-clock budget and is retried from the start when
// an attempt fails, so the chunk function must be idempotent. A chunk that
// exhausts its attempts does not stop the others; it is reported in
// RunSummary.FailedChunks and as a ChunkError.
package batch
