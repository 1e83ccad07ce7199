// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package entitycache provides typed, per-entity cache facades over the
// raw byte cache provider. Every facade is read-through: a miss loads
// from the store and populates the cache. Mutations go to the store
// first; the cache is updated or invalidated afterwards, so a crash
// between the two can only leave stale cache entries, never stale rows.
package entitycache

import (
	"encoding/json"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/logging"
)

// encode marshals v for cache storage. Failures are logged and reported
// so callers skip the cache write rather than poisoning the key.
func encode(v any) ([]byte, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		logging.Warnf("entitycache: encode failed: %v", err)
		return nil, false
	}
	return b, true
}

// decode unmarshals a cached value into v. A decode failure deletes the
// entry and reports a miss, forcing a reload from the store.
func decode(p cache.Provider, key string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		logging.Warnf("entitycache: corrupt entry %q evicted: %v", key, err)
		p.Delete(key)
		return false
	}
	return true
}
