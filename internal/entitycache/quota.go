// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package entitycache

import (
	"errors"
	"fmt"
	"time"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/model"
)

// QuotaCache is the read-through facade for account quotas. An account
// with no quota row gets one created with the configured defaults on
// first access, so callers never see a missing quota.
type QuotaCache struct {
	store db.Store
	cache cache.Provider
	ttl   time.Duration

	// Defaults applied when an account is seen for the first time.
	DefaultWorkspaceLimit int
	DefaultSizeLimit      int
}

func NewQuotaCache(store db.Store, provider cache.Provider, ttl time.Duration) *QuotaCache {
	return &QuotaCache{store: store, cache: provider, ttl: ttl}
}

func quotaKey(account string) string {
	return "quota:" + account
}

// Get returns the account's quota, creating a default row if none exists.
func (c *QuotaCache) Get(account string) (*model.Quota, error) {
	key := quotaKey(account)
	if data, ok := c.cache.Get(key); ok {
		var q model.Quota
		if decode(c.cache, key, data, &q) {
			return &q, nil
		}
	}

	q, err := c.store.GetQuota(account)
	if db.IsNotFound(err) {
		fresh := model.Quota{
			Account:        account,
			WorkspaceLimit: c.DefaultWorkspaceLimit,
			SizeLimit:      c.DefaultSizeLimit,
		}
		id, insErr := c.store.InsertQuota(fresh)
		if errors.Is(insErr, db.ErrDuplicate) {
			// Lost the creation race; the winner's row is authoritative.
			q, err = c.store.GetQuota(account)
		} else if insErr != nil {
			return nil, fmt.Errorf("create default quota for %s: %w", account, insErr)
		} else {
			fresh.ID = id
			q, err = &fresh, nil
		}
	}
	if err != nil {
		return nil, err
	}

	if data, ok := encode(q); ok {
		c.cache.Set(key, data, c.ttl)
	}
	return q, nil
}

// Refresh reloads the quota from the store into the cache and returns it.
func (c *QuotaCache) Refresh(account string) (*model.Quota, error) {
	c.cache.Delete(quotaKey(account))
	return c.Get(account)
}

// Invalidate drops the cached quota for the account.
func (c *QuotaCache) Invalidate(account string) {
	c.cache.Delete(quotaKey(account))
}
