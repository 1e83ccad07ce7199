// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package pickup

import (
	"sync"
	"time"

	"github.com/stratavault/strata/internal/entitycache"
	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/logging"
	"github.com/stratavault/strata/internal/model"
)

// candidateTTL is the safety-net age after which an actor's candidate
// list is rebuilt even if no invalidating event arrived.
const candidateTTL = 5 * time.Minute

// candidate is one vault an actor's items may be routed into, with its
// rules and owner scope resolved up front.
type candidate struct {
	vault model.Vault
	rules []model.PickupRule
	// owner is the item owner scope: the actor for independent
	// workspaces, empty for shared ones.
	owner string
}

type actorCandidates struct {
	builtAt time.Time
	list    []candidate
}

// Service routes items for connected actors. Candidate lists are cached
// per actor and invalidated on connect, disconnect, rule changes and
// workspace/vault mutations, with a time-based rebuild as a backstop.
type Service struct {
	caches *entitycache.Service
	bus    *event.Bus

	// notify, when set, is called after a successful store so view
	// synchronization can patch open views.
	notify func(vaultID, page, slot int, item model.Item)

	mu         sync.Mutex
	candidates map[string]*actorCandidates

	unsubscribe []func()
}

func NewService(caches *entitycache.Service, bus *event.Bus) *Service {
	return &Service{
		caches:     caches,
		bus:        bus,
		candidates: make(map[string]*actorCandidates),
	}
}

// SetNotify installs the post-store callback. Must be called before Start.
func (s *Service) SetNotify(fn func(vaultID, page, slot int, item model.Item)) {
	s.notify = fn
}

// Start attaches the cache-invalidation event handlers.
func (s *Service) Start() {
	invalidateActor := func(e event.Event) { s.Invalidate(e.Actor) }
	invalidateAll := func(event.Event) { s.InvalidateAll() }

	s.unsubscribe = append(s.unsubscribe,
		s.bus.Subscribe(event.TypeActorConnected, invalidateActor),
		s.bus.Subscribe(event.TypeActorDisconnected, invalidateActor),
		s.bus.Subscribe(event.TypeRuleChanged, invalidateAll),
		s.bus.Subscribe(event.TypeWorkspaceCreated, invalidateAll),
		s.bus.Subscribe(event.TypeWorkspaceDeleted, invalidateAll),
		s.bus.Subscribe(event.TypeWorkspaceUpdated, invalidateAll),
		s.bus.Subscribe(event.TypeVaultCreated, invalidateAll),
		s.bus.Subscribe(event.TypeVaultDeleted, invalidateAll),
		s.bus.Subscribe(event.TypeVaultResized, invalidateAll),
	)
}

// Stop detaches event handlers.
func (s *Service) Stop() {
	for _, off := range s.unsubscribe {
		off()
	}
	s.unsubscribe = nil
}

// Invalidate drops the cached candidate list for one actor.
func (s *Service) Invalidate(actor string) {
	s.mu.Lock()
	delete(s.candidates, actor)
	s.mu.Unlock()
}

// InvalidateAll drops every cached candidate list.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	s.candidates = make(map[string]*actorCandidates)
	s.mu.Unlock()
}

// TryStore routes the item into the first of the actor's vaults that
// accepts it and has a free slot. It returns the stored item with page
// and slot filled, or false when no vault took it. Vaults with no
// matching rule pass rather than accept; only an explicit allow match
// stores the item.
func (s *Service) TryStore(actor string, item model.Item) (model.Item, bool, error) {
	cands, err := s.candidatesFor(actor)
	if err != nil {
		return model.Item{}, false, err
	}

	for _, c := range cands {
		switch Evaluate(c.rules, item) {
		case Refuse:
			continue
		case NoDecision:
			continue
		}

		stored, ok, err := s.storeInVault(c, item)
		if err != nil {
			return model.Item{}, false, err
		}
		if ok {
			return stored, true, nil
		}
		// Vault accepted but is full; keep looking.
	}
	return model.Item{}, false, nil
}

// storeInVault places the item in the vault's first free slot.
func (s *Service) storeInVault(c candidate, item model.Item) (model.Item, bool, error) {
	existing, err := s.caches.Items.GetAll(c.vault.ID, c.owner)
	if err != nil {
		return model.Item{}, false, err
	}

	occupied := make(map[int]bool, len(existing))
	for _, it := range existing {
		occupied[(it.Page-1)*model.PageSize+it.Slot] = true
	}
	free := -1
	for i := 0; i < c.vault.Size; i++ {
		if !occupied[i] {
			free = i
			break
		}
	}
	if free < 0 {
		return model.Item{}, false, nil
	}

	item.VaultID = c.vault.ID
	item.Owner = c.owner
	item.Page = free/model.PageSize + 1
	item.Slot = free % model.PageSize

	if err := s.caches.Items.Put(item); err != nil {
		return model.Item{}, false, err
	}
	s.bus.Publish(event.Event{
		Type: event.TypeItemSet, Actor: c.owner,
		VaultID: item.VaultID, Page: item.Page, Slot: item.Slot,
	})
	if s.notify != nil {
		s.notify(item.VaultID, item.Page, item.Slot, item)
	}
	return item, true, nil
}

// candidatesFor returns the actor's candidate list, rebuilding it when
// missing or older than the safety-net ttl.
func (s *Service) candidatesFor(actor string) ([]candidate, error) {
	s.mu.Lock()
	cached, ok := s.candidates[actor]
	if ok && time.Since(cached.builtAt) < candidateTTL {
		list := cached.list
		s.mu.Unlock()
		return list, nil
	}
	s.mu.Unlock()

	list, err := s.buildCandidates(actor)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.candidates[actor] = &actorCandidates{builtAt: time.Now(), list: list}
	s.mu.Unlock()
	return list, nil
}

// buildCandidates walks the actor's workspaces and collects every vault
// that carries at least one allow rule. Rule-free vaults can never
// accept, so they are skipped up front.
func (s *Service) buildCandidates(actor string) ([]candidate, error) {
	start := time.Now()
	workspaces, err := s.caches.Workspaces.GetForActor(actor)
	if err != nil {
		return nil, err
	}

	var out []candidate
	for _, w := range workspaces {
		vaults, err := s.caches.Vaults.GetByWorkspace(w.ID)
		if err != nil {
			return nil, err
		}
		owner := ""
		if w.Independent() {
			owner = actor
		}
		for _, v := range vaults {
			rules, err := s.caches.Rules.Get(v.ID)
			if err != nil {
				return nil, err
			}
			hasAllow := false
			for _, r := range rules {
				if r.Kind == model.RuleAllow {
					hasAllow = true
					break
				}
			}
			if !hasAllow {
				continue
			}
			out = append(out, candidate{vault: v, rules: rules, owner: owner})
		}
	}

	logging.Debugf("pickup: built %d candidates for %s in %s", len(out), actor, time.Since(start))
	return out, nil
}
