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

// VaultCache is the read-through facade for vaults, keyed by vault id
// and by owning workspace.
type VaultCache struct {
	store db.Store
	cache cache.Provider
	ttl   time.Duration
}

func NewVaultCache(store db.Store, provider cache.Provider, ttl time.Duration) *VaultCache {
	return &VaultCache{store: store, cache: provider, ttl: ttl}
}

func vaultKey(id int) string {
	return "vault:" + strconv.Itoa(id)
}

func vaultWorkspaceKey(workspaceID int) string {
	return "vault:workspace:" + strconv.Itoa(workspaceID)
}

// Get returns the vault by id.
func (c *VaultCache) Get(id int) (*model.Vault, error) {
	key := vaultKey(id)
	if data, ok := c.cache.Get(key); ok {
		var v model.Vault
		if decode(c.cache, key, data, &v) {
			return &v, nil
		}
	}
	v, err := c.store.GetVault(id)
	if err != nil {
		return nil, err
	}
	if data, ok := encode(v); ok {
		c.cache.Set(key, data, c.ttl)
	}
	return v, nil
}

// GetByWorkspace returns all vaults of a workspace.
func (c *VaultCache) GetByWorkspace(workspaceID int) ([]model.Vault, error) {
	key := vaultWorkspaceKey(workspaceID)
	if data, ok := c.cache.Get(key); ok {
		var list []model.Vault
		if decode(c.cache, key, data, &list) {
			return list, nil
		}
	}
	list, err := c.store.GetVaultsByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	if data, ok := encode(list); ok {
		c.cache.Set(key, data, c.ttl)
	}
	return list, nil
}

// Invalidate drops the vault and its workspace's vault list.
func (c *VaultCache) Invalidate(id, workspaceID int) {
	c.cache.Delete(vaultKey(id))
	c.cache.Delete(vaultWorkspaceKey(workspaceID))
}

// InvalidateWorkspace drops the vault list of a workspace.
func (c *VaultCache) InvalidateWorkspace(workspaceID int) {
	c.cache.Delete(vaultWorkspaceKey(workspaceID))
}
