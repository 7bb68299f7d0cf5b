// Package store provides SQLite-backed durable storage for doney workspaces.
//
// The store is a small keyed document table:
//   - documents: the latest JSON payload per storage key, with its content
//     digest and a revision counter bumped on every write
//   - document_history: one row per write (revision, digest, node count),
//     removed together with its document
//
// The store knows nothing about nodes. Encoding, validation and digests live
// in internal/snapshot; the load/save policy lives in internal/persist.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: history rows cascade with their document
package store
