// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package entitycache

import (
	"fmt"
	"time"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
)

// SettingCache is the facade for per-vault, per-actor settings. Absent
// settings are cached too, so repeated lookups of unset keys do not hit
// the store.
type SettingCache struct {
	store db.Store
	cache cache.Provider
	ttl   time.Duration
}

func NewSettingCache(store db.Store, provider cache.Provider, ttl time.Duration) *SettingCache {
	return &SettingCache{store: store, cache: provider, ttl: ttl}
}

func settingKey(vaultID int, owner, key string) string {
	return fmt.Sprintf("setting:%d:%s:%s", vaultID, ownerScope(owner), key)
}

type settingEntry struct {
	Present bool   `json:"present"`
	Value   string `json:"value"`
}

// Get returns the setting value and whether it is set.
func (c *SettingCache) Get(vaultID int, key, owner string) (string, bool, error) {
	ck := settingKey(vaultID, owner, key)
	if data, ok := c.cache.Get(ck); ok {
		var e settingEntry
		if decode(c.cache, ck, data, &e) {
			return e.Value, e.Present, nil
		}
	}

	entry := settingEntry{}
	st, err := c.store.GetSetting(vaultID, key, owner)
	switch {
	case err == nil:
		entry = settingEntry{Present: true, Value: st.Value}
	case db.IsNotFound(err):
		// Cache the absence.
	default:
		return "", false, err
	}

	if data, ok := encode(entry); ok {
		c.cache.Set(ck, data, c.ttl)
	}
	return entry.Value, entry.Present, nil
}

// Put upserts the setting in the store and writes through to the cache.
func (c *SettingCache) Put(vaultID int, key, owner, value string) error {
	if err := c.store.UpsertSetting(vaultID, key, owner, value); err != nil {
		return err
	}
	if data, ok := encode(settingEntry{Present: true, Value: value}); ok {
		c.cache.Set(settingKey(vaultID, owner, key), data, c.ttl)
	} else {
		c.cache.Delete(settingKey(vaultID, owner, key))
	}
	return nil
}

// Remove deletes the setting and caches its absence.
func (c *SettingCache) Remove(vaultID int, key, owner string) error {
	if err := c.store.DeleteSetting(vaultID, key, owner); err != nil {
		return err
	}
	if data, ok := encode(settingEntry{}); ok {
		c.cache.Set(settingKey(vaultID, owner, key), data, c.ttl)
	} else {
		c.cache.Delete(settingKey(vaultID, owner, key))
	}
	return nil
}

// InvalidateVault drops every cached setting of the vault.
func (c *SettingCache) InvalidateVault(vaultID int) {
	c.cache.DeleteByPrefix(fmt.Sprintf("setting:%d:", vaultID))
}
