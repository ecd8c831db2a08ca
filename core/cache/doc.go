// Package cache holds the reference-id cache shared by sync workers.
//
// Keys are built with Key, which normalizes natural keys (Unicode NFKC, case
// folding, collapsed whitespace) so that trivially different spellings map to one
// entry. Memory is safe for concurrent use and deduplicates concurrent loads of
// the same key with singleflight. Misses are never cached.
//
// The cache is cleared at the start of each full sync run and is never treated as
// the source of truth; the store's unique constraints are.
package cache
