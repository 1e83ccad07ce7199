// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package entitycache

import (
	"strconv"
	"time"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/model"
)

// RuleCache is the read-through facade for pickup rules, keyed per
// vault. BatchLoad warms many vaults with a single store query, which
// the preload path uses when an actor connects.
type RuleCache struct {
	store db.Store
	cache cache.Provider
	ttl   time.Duration
}

func NewRuleCache(store db.Store, provider cache.Provider, ttl time.Duration) *RuleCache {
	return &RuleCache{store: store, cache: provider, ttl: ttl}
}

func ruleKey(vaultID int) string {
	return "rules:" + strconv.Itoa(vaultID)
}

// Get returns the vault's pickup rules in id order.
func (c *RuleCache) Get(vaultID int) ([]model.PickupRule, error) {
	key := ruleKey(vaultID)
	if data, ok := c.cache.Get(key); ok {
		var list []model.PickupRule
		if decode(c.cache, key, data, &list) {
			return list, nil
		}
	}
	list, err := c.store.GetPickupRules(vaultID)
	if err != nil {
		return nil, err
	}
	if data, ok := encode(list); ok {
		c.cache.Set(key, data, c.ttl)
	}
	return list, nil
}

// BatchLoad returns rules for all given vaults, merging cache hits with
// a single grouped store query for the misses. Rule-free vaults get an
// empty slice cached so repeated preloads stay off the store.
func (c *RuleCache) BatchLoad(vaultIDs []int) (map[int][]model.PickupRule, error) {
	out := make(map[int][]model.PickupRule, len(vaultIDs))
	var misses []int
	for _, id := range vaultIDs {
		key := ruleKey(id)
		if data, ok := c.cache.Get(key); ok {
			var list []model.PickupRule
			if decode(c.cache, key, data, &list) {
				out[id] = list
				continue
			}
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	byVault, err := c.store.GetPickupRulesByVaults(misses)
	if err != nil {
		return nil, err
	}
	for _, id := range misses {
		rules := byVault[id]
		out[id] = rules
		if data, ok := encode(rules); ok {
			c.cache.Set(ruleKey(id), data, c.ttl)
		}
	}
	return out, nil
}

// Invalidate drops the cached rules of a vault.
func (c *RuleCache) Invalidate(vaultID int) {
	c.cache.Delete(ruleKey(vaultID))
}
