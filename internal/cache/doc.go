// Package cache implements the disk-backed artifact cache shared by the
// thumbnail and video subsystems.
//
// Entries are addressed by a deterministic key derived from the source
// file's path, size, modification time and a variant tag, so editing a
// source implicitly invalidates its artifacts. Producers write to a
// temporary name and are renamed into place, making entries visible
// atomically; concurrent requests for the same key share one producer run
// via a per-key broadcast channel. A size bound is enforced by periodic
// eviction, oldest access time first.
package cache
