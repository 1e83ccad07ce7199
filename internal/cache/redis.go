// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stratavault/strata/internal/logging"
)

// redisScanCount is the batch hint passed to SCAN. The key space is
// iterated with a cursor; a blocking KEYS listing is never issued.
const redisScanCount = 100

// RedisProvider is the networked cache implementation. Every key is
// namespaced under a configurable prefix so several deployments can share
// one Redis database. Backend failures never escape: reads degrade to a
// miss and writes are logged and skipped.
type RedisProvider struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds the connection settings for the Redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NewRedisProvider connects to Redis and verifies the connection with a
// ping. Unlike the data-path operations, a failed connect is returned to
// the caller so the factory can fall back to the in-process cache.
func NewRedisProvider(cfg RedisConfig, keyPrefix string) (*RedisProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisProvider{client: client, keyPrefix: keyPrefix}, nil
}

func (r *RedisProvider) prefixed(key string) string {
	return r.keyPrefix + ":" + key
}

// Get returns the value for key, or absent on miss, expiry, or any
// backend failure.
func (r *RedisProvider) Get(key string) ([]byte, bool) {
	val, err := r.client.Get(context.Background(), r.prefixed(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Warnf("cache: redis get %s: %v", key, err)
		}
		return nil, false
	}
	return val, true
}

// Set stores value under key. Millisecond TTL granularity is preserved by
// go-redis (PSETEX under the hood for sub-second durations).
func (r *RedisProvider) Set(key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(context.Background(), r.prefixed(key), value, ttl).Err(); err != nil {
		logging.Warnf("cache: redis set %s: %v", key, err)
	}
}

// Delete removes the entry for key.
func (r *RedisProvider) Delete(key string) {
	if err := r.client.Del(context.Background(), r.prefixed(key)).Err(); err != nil {
		logging.Warnf("cache: redis del %s: %v", key, err)
	}
}

// DeleteByPrefix removes every entry whose key starts with prefix, using
// a cursor-based SCAN so the server is never blocked.
func (r *RedisProvider) DeleteByPrefix(prefix string) {
	ctx := context.Background()
	pattern := r.prefixed(prefix) + "*"
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, redisScanCount).Result()
		if err != nil {
			logging.Warnf("cache: redis scan %s: %v", pattern, err)
			return
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				logging.Warnf("cache: redis del batch: %v", err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Exists reports whether key holds a live entry.
func (r *RedisProvider) Exists(key string) bool {
	n, err := r.client.Exists(context.Background(), r.prefixed(key)).Result()
	if err != nil {
		logging.Warnf("cache: redis exists %s: %v", key, err)
		return false
	}
	return n > 0
}

// Keys returns all live keys starting with prefix, with the namespace
// prefix stripped.
func (r *RedisProvider) Keys(prefix string) []string {
	ctx := context.Background()
	pattern := r.prefixed(prefix) + "*"
	strip := r.keyPrefix + ":"
	var out []string
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, redisScanCount).Result()
		if err != nil {
			logging.Warnf("cache: redis scan %s: %v", pattern, err)
			return out
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, strip))
		}
		cursor = next
		if cursor == 0 {
			return out
		}
	}
}

// Clear removes every entry under the namespace prefix.
func (r *RedisProvider) Clear() {
	r.DeleteByPrefix("")
}

// Close shuts down the Redis client.
func (r *RedisProvider) Close() error {
	return r.client.Close()
}
