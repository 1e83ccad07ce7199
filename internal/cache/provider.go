// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cache provides the pluggable key/value cache layer used by the
// entity facades. Two implementations exist: an in-process concurrent map
// and a Redis-backed provider. The persistent store stays authoritative
// regardless of cache health: reads fail open (absent), writes fail silent.
package cache

import "time"

// Provider is the cache abstraction. Values are opaque byte slices; typed
// encoding/decoding happens in the entity facades. A ttl of zero means the
// entry never expires. Implementations must be safe for concurrent use.
type Provider interface {
	// Get returns the value for key, or false when absent or expired.
	Get(key string) ([]byte, bool)
	// Set stores value under key with the given ttl.
	Set(key string, value []byte, ttl time.Duration)
	// Delete removes the entry for key, if any.
	Delete(key string)
	// DeleteByPrefix removes every entry whose key starts with prefix.
	DeleteByPrefix(prefix string)
	// Exists reports whether key holds a live entry.
	Exists(key string) bool
	// Keys returns all live keys starting with prefix.
	Keys(prefix string) []string
	// Clear removes all entries.
	Clear()
	// Close releases provider resources.
	Close() error
}
