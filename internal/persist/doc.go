// Package persist loads and saves a workspace's node sequence under a
// storage key.
//
// Repository applies the load policy (missing or corrupt data becomes an
// empty sequence, corrupt data is deleted) and skips writes whose digest
// matches what is already stored. Saver coalesces bursts of changes into one
// write after a quiet period and must be flushed before shutdown.
package persist
