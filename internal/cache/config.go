// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package cache

import (
	"strings"
	"time"

	"github.com/stratavault/strata/internal/logging"
)

// DefaultTTL is used for cached entries when the configuration does not
// set one.
const DefaultTTL = 5 * time.Minute

// DefaultKeyPrefix namespaces all cache keys.
const DefaultKeyPrefix = "strata"

// Config selects and parameterizes the cache provider.
type Config struct {
	// Type is "memory" or "redis". Unknown values fall back to memory.
	Type string `mapstructure:"type"`
	// TTL is the default entry lifetime. Zero selects DefaultTTL.
	TTL time.Duration `mapstructure:"ttl"`
	// KeyPrefix namespaces keys on shared backends.
	KeyPrefix string      `mapstructure:"key-prefix"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// EffectiveTTL returns the configured TTL or the default.
func (c Config) EffectiveTTL() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultTTL
}

// New builds the provider described by cfg. A Redis provider that fails
// to connect degrades to the in-process cache with a logged warning; the
// process keeps running against the authoritative store either way.
func New(cfg Config) Provider {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	switch strings.ToLower(cfg.Type) {
	case "", "memory":
		return NewMemoryProvider()
	case "redis":
		p, err := NewRedisProvider(cfg.Redis, prefix)
		if err != nil {
			logging.Warnf("cache: redis init failed (%v), falling back to memory", err)
			return NewMemoryProvider()
		}
		logging.Infof("cache: redis provider connected (%s)", cfg.Redis.Addr)
		return p
	default:
		logging.Warnf("cache: unsupported cache type %q, using memory", cfg.Type)
		return NewMemoryProvider()
	}
}
