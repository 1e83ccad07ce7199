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

// WorkspaceCache is the read-through facade for workspaces. Three key
// families exist: by id, the per-actor membership list, and the single
// independent workspace. The independent entry is cached without a ttl
// since it never changes after bootstrap.
type WorkspaceCache struct {
	store db.Store
	cache cache.Provider
	ttl   time.Duration
}

func NewWorkspaceCache(store db.Store, provider cache.Provider, ttl time.Duration) *WorkspaceCache {
	return &WorkspaceCache{store: store, cache: provider, ttl: ttl}
}

func workspaceKey(id int) string {
	return "workspace:" + strconv.Itoa(id)
}

func workspaceActorKey(actor string) string {
	return "workspace:actor:" + actor
}

const workspaceIndependentKey = "workspace:independent"

// Get returns the workspace by id.
func (c *WorkspaceCache) Get(id int) (*model.Workspace, error) {
	key := workspaceKey(id)
	if data, ok := c.cache.Get(key); ok {
		var w model.Workspace
		if decode(c.cache, key, data, &w) {
			return &w, nil
		}
	}
	w, err := c.store.GetWorkspace(id)
	if err != nil {
		return nil, err
	}
	if data, ok := encode(w); ok {
		c.cache.Set(key, data, c.ttl)
	}
	return w, nil
}

// GetForActor returns the workspaces the actor owns or belongs to.
func (c *WorkspaceCache) GetForActor(actor string) ([]model.Workspace, error) {
	key := workspaceActorKey(actor)
	if data, ok := c.cache.Get(key); ok {
		var list []model.Workspace
		if decode(c.cache, key, data, &list) {
			return list, nil
		}
	}
	list, err := c.store.GetWorkspacesForActor(actor)
	if err != nil {
		return nil, err
	}
	if data, ok := encode(list); ok {
		c.cache.Set(key, data, c.ttl)
	}
	return list, nil
}

// GetIndependent returns the bootstrap independent workspace.
func (c *WorkspaceCache) GetIndependent() (*model.Workspace, error) {
	if data, ok := c.cache.Get(workspaceIndependentKey); ok {
		var w model.Workspace
		if decode(c.cache, workspaceIndependentKey, data, &w) {
			return &w, nil
		}
	}
	w, err := c.store.GetIndependentWorkspace()
	if err != nil {
		return nil, err
	}
	if data, ok := encode(w); ok {
		c.cache.Set(workspaceIndependentKey, data, 0)
	}
	return w, nil
}

// Invalidate drops the cached workspace and every actor list, since a
// workspace mutation can change any member's view.
func (c *WorkspaceCache) Invalidate(id int) {
	c.cache.Delete(workspaceKey(id))
	c.cache.DeleteByPrefix("workspace:actor:")
}

// InvalidateActor drops only the actor's membership list.
func (c *WorkspaceCache) InvalidateActor(actor string) {
	c.cache.Delete(workspaceActorKey(actor))
}
