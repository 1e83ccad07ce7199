// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package entitycache

import (
	"strings"
	"time"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/logging"
)

// Service bundles the entity facades over one provider and one store,
// and implements the connect/disconnect cache lifecycle: warm an
// actor's working set when they connect, drop it when they leave.
type Service struct {
	provider cache.Provider

	Quotas     *QuotaCache
	Workspaces *WorkspaceCache
	Vaults     *VaultCache
	Items      *ItemCache
	Settings   *SettingCache
	Rules      *RuleCache
}

// NewService wires all facades with a shared ttl.
func NewService(store db.Store, provider cache.Provider, ttl time.Duration) *Service {
	return &Service{
		provider:   provider,
		Quotas:     NewQuotaCache(store, provider, ttl),
		Workspaces: NewWorkspaceCache(store, provider, ttl),
		Vaults:     NewVaultCache(store, provider, ttl),
		Items:      NewItemCache(store, provider, ttl),
		Settings:   NewSettingCache(store, provider, ttl),
		Rules:      NewRuleCache(store, provider, ttl),
	}
}

// PreloadActor warms the caches an actor touches right after
// connecting: their quota, their workspace list, each workspace's
// vaults and every vault's pickup rules. Failures are logged and
// skipped; preloading is best effort.
func (s *Service) PreloadActor(actor string) {
	start := time.Now()

	if _, err := s.Quotas.Get(actor); err != nil {
		logging.Warnf("entitycache: preload quota for %s: %v", actor, err)
	}

	workspaces, err := s.Workspaces.GetForActor(actor)
	if err != nil {
		logging.Warnf("entitycache: preload workspaces for %s: %v", actor, err)
		return
	}

	var vaultIDs []int
	for _, w := range workspaces {
		vaults, err := s.Vaults.GetByWorkspace(w.ID)
		if err != nil {
			logging.Warnf("entitycache: preload vaults of workspace %d: %v", w.ID, err)
			continue
		}
		for _, v := range vaults {
			vaultIDs = append(vaultIDs, v.ID)
		}
	}
	if len(vaultIDs) > 0 {
		if _, err := s.Rules.BatchLoad(vaultIDs); err != nil {
			logging.Warnf("entitycache: preload rules: %v", err)
		}
	}

	logging.Debugf("entitycache: preloaded %s (%d workspaces, %d vaults) in %s",
		actor, len(workspaces), len(vaultIDs), time.Since(start))
}

// EvictActor drops everything cached specifically for the actor: their
// quota, workspace list, and any item/setting entries in their owner
// scope. Shared entries stay; other actors may still be using them.
func (s *Service) EvictActor(actor string) {
	s.provider.Delete(quotaKey(actor))
	s.provider.Delete(workspaceActorKey(actor))

	suffix := ":" + actor
	for _, prefix := range []string{"items:", "setting:"} {
		for _, key := range s.provider.Keys(prefix) {
			if strings.HasSuffix(key, suffix) {
				s.provider.Delete(key)
			}
		}
	}
}

// Clear wipes the whole cache.
func (s *Service) Clear() {
	s.provider.Clear()
}

// Stats reports live entry counts per key family.
type Stats struct {
	Quotas     int
	Workspaces int
	Vaults     int
	Items      int
	Settings   int
	Rules      int
}

func (s *Service) Stats() Stats {
	return Stats{
		Quotas:     len(s.provider.Keys("quota:")),
		Workspaces: len(s.provider.Keys("workspace:")),
		Vaults:     len(s.provider.Keys("vault:")),
		Items:      len(s.provider.Keys("items:")),
		Settings:   len(s.provider.Keys("setting:")),
		Rules:      len(s.provider.Keys("rules:")),
	}
}
