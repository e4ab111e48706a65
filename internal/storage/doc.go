// Package storage provides SQLite-backed persistence for the planrag
// retrieval engine: planning documents, embedded chunks, the query
// cache, and materialized aggregate statistics.
//
// # Build Modes
//
// Two SQLite drivers are supported via build tags:
//
//   - Default (purego): modernc.org/sqlite, no CGO. Vector similarity
//     is computed in Go over candidate rows.
//   - sqlite_vec tag: mattn/go-sqlite3 with the sqlite-vec extension.
//     Cosine distance runs inside SQL for large document sets.
//
// Both modes produce identical rankings; ties are always broken by
// ascending chunk id.
//
// # Search
//
// SearchVector and SearchText are the two candidate generators behind
// hybrid search. Both restrict results to chunks of active documents
// matching the borough/category filters, and both return empty slices
// (not errors) when nothing matches. SearchText additionally drops
// chunks scoring below MinTrigramSimilarity.
//
// # Query Cache
//
// The query_cache table persists fused result payloads keyed by
// (fingerprint, borough). LookupCache serves only valid, unexpired
// rows and records hit statistics best-effort. SweepExpiredCache
// deletes rows strictly by expiry timestamp, so it can run alongside
// readers and writers without coordination.
//
// # Aggregate Stats
//
// ComputeAggregateStats and ReplaceAggregateStats implement a
// materialized-view refresh: the rollup is computed from active
// documents, then swapped in wholesale within a transaction.
package storage
