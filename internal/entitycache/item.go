// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package entitycache

import (
	"fmt"
	"sort"
	"time"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/model"
)

// ItemCache is the facade for vault item slots. Reads are read-through;
// slot mutations are write-through: already-cached pages and vault-wide
// lists are patched in place so hot views never reload a full page for a
// single slot change. Keys carry the owner scope, with "shared" standing
// in for the empty owner of non-independent content.
type ItemCache struct {
	store db.Store
	cache cache.Provider
	ttl   time.Duration
}

func NewItemCache(store db.Store, provider cache.Provider, ttl time.Duration) *ItemCache {
	return &ItemCache{store: store, cache: provider, ttl: ttl}
}

func ownerScope(owner string) string {
	if owner == "" {
		return "shared"
	}
	return owner
}

func itemPageKey(vaultID, page int, owner string) string {
	return fmt.Sprintf("items:%d:%d:%s", vaultID, page, ownerScope(owner))
}

func itemAllKey(vaultID int, owner string) string {
	return fmt.Sprintf("items:all:%d:%s", vaultID, ownerScope(owner))
}

// GetPage returns the items on one page of a vault for the given owner
// scope, sorted by slot.
func (c *ItemCache) GetPage(vaultID, page int, owner string) ([]model.Item, error) {
	key := itemPageKey(vaultID, page, owner)
	if data, ok := c.cache.Get(key); ok {
		var list []model.Item
		if decode(c.cache, key, data, &list) {
			return list, nil
		}
	}
	list, err := c.store.GetPageItems(vaultID, page, owner)
	if err != nil {
		return nil, err
	}
	if data, ok := encode(list); ok {
		c.cache.Set(key, data, c.ttl)
	}
	return list, nil
}

// GetAll returns every item in the vault for the owner scope.
func (c *ItemCache) GetAll(vaultID int, owner string) ([]model.Item, error) {
	key := itemAllKey(vaultID, owner)
	if data, ok := c.cache.Get(key); ok {
		var list []model.Item
		if decode(c.cache, key, data, &list) {
			return list, nil
		}
	}
	list, err := c.store.GetItems(vaultID, owner)
	if err != nil {
		return nil, err
	}
	if data, ok := encode(list); ok {
		c.cache.Set(key, data, c.ttl)
	}
	return list, nil
}

// Put replaces the item's slot in the store, then patches any cached
// page and vault-wide lists for the same scope.
func (c *ItemCache) Put(item model.Item) error {
	if err := c.store.ReplaceItem(item); err != nil {
		return err
	}
	c.patch(itemPageKey(item.VaultID, item.Page, item.Owner), item, true)
	c.patch(itemAllKey(item.VaultID, item.Owner), item, true)
	return nil
}

// Remove clears the slot in the store, then patches cached lists.
func (c *ItemCache) Remove(vaultID, page, slot int, owner string) error {
	if err := c.store.DeleteItem(vaultID, page, slot, owner); err != nil {
		return err
	}
	ghost := model.Item{VaultID: vaultID, Page: page, Slot: slot, Owner: owner}
	c.patch(itemPageKey(vaultID, page, owner), ghost, false)
	c.patch(itemAllKey(vaultID, owner), ghost, false)
	return nil
}

// patch rewrites one slot inside an already-cached list, keeping the
// (page, slot) order the read paths promise. Uncached keys are left
// alone; the next read loads fresh rows. A patch that fails to decode
// just evicts the key.
func (c *ItemCache) patch(key string, item model.Item, present bool) {
	data, ok := c.cache.Get(key)
	if !ok {
		return
	}
	var list []model.Item
	if !decode(c.cache, key, data, &list) {
		return
	}
	out := list[:0]
	for _, it := range list {
		if it.Page == item.Page && it.Slot == item.Slot {
			continue
		}
		out = append(out, it)
	}
	if present {
		at := sort.Search(len(out), func(i int) bool {
			if out[i].Page != item.Page {
				return out[i].Page > item.Page
			}
			return out[i].Slot > item.Slot
		})
		out = append(out, model.Item{})
		copy(out[at+1:], out[at:])
		out[at] = item
	}
	if data, ok := encode(out); ok {
		c.cache.Set(key, data, c.ttl)
	} else {
		c.cache.Delete(key)
	}
}

// InvalidateVault drops every cached item list of the vault, all scopes.
func (c *ItemCache) InvalidateVault(vaultID int) {
	c.cache.DeleteByPrefix(fmt.Sprintf("items:%d:", vaultID))
	c.cache.DeleteByPrefix(fmt.Sprintf("items:all:%d:", vaultID))
}
