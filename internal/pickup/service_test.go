// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package pickup

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/entitycache"
	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/model"
)

type fixture struct {
	store      db.Store
	caches     *entitycache.Service
	bus        *event.Bus
	svc        *Service
	vaultCount int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:test_pickup_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	store, err := db.NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	bus := event.NewBus()
	caches := entitycache.NewService(store, cache.NewMemoryProvider(), time.Minute)
	svc := NewService(caches, bus)
	svc.Start()
	t.Cleanup(svc.Stop)
	return &fixture{store: store, caches: caches, bus: bus, svc: svc}
}

func (f *fixture) workspace(t *testing.T, owner string, typ model.WorkspaceType) int {
	t.Helper()
	id, err := f.store.InsertWorkspace(model.Workspace{Name: "ws-" + owner + string(typ), Type: typ, Owner: owner})
	if err != nil {
		t.Fatalf("InsertWorkspace: %v", err)
	}
	return id
}

func (f *fixture) vault(t *testing.T, wsID, size int, rules ...model.PickupRule) int {
	t.Helper()
	f.vaultCount++
	id, err := f.store.InsertVault(model.Vault{Name: "v" + strconv.Itoa(f.vaultCount), WorkspaceID: wsID, Size: size})
	if err != nil {
		t.Fatalf("InsertVault: %v", err)
	}
	for _, r := range rules {
		r.VaultID = id
		if _, err := f.store.InsertPickupRule(r); err != nil {
			t.Fatalf("InsertPickupRule: %v", err)
		}
	}
	return id
}

func TestTryStoreRoutesToAllowedVault(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	vID := f.vault(t, wsID, 36, model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"})

	stored, ok, err := f.svc.TryStore("alice", model.Item{Name: "coal", Kind: "ore"})
	if err != nil {
		t.Fatalf("TryStore: %v", err)
	}
	if !ok {
		t.Fatal("item should have been stored")
	}
	if stored.VaultID != vID || stored.Page != 1 || stored.Slot != 0 {
		t.Fatalf("unexpected placement: %+v", stored)
	}

	rows, _ := f.store.GetItems(vID, "")
	if len(rows) != 1 || rows[0].Name != "coal" {
		t.Fatalf("item not persisted: %+v", rows)
	}
}

func TestTryStoreDenyVetoes(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	f.vault(t, wsID, 36,
		model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"},
		model.PickupRule{Kind: model.RuleDeny, Match: "name:cursed"},
	)

	_, ok, err := f.svc.TryStore("alice", model.Item{Name: "cursed coal", Kind: "ore"})
	if err != nil {
		t.Fatalf("TryStore: %v", err)
	}
	if ok {
		t.Fatal("denied item must not be stored")
	}
}

func TestTryStoreSkipsUnmatchedAndRuleFreeVaults(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	f.vault(t, wsID, 36) // no rules at all
	f.vault(t, wsID, 36, model.PickupRule{Kind: model.RuleAllow, Match: "kind:tool"})

	_, ok, err := f.svc.TryStore("alice", model.Item{Name: "coal", Kind: "ore"})
	if err != nil {
		t.Fatalf("TryStore: %v", err)
	}
	if ok {
		t.Fatal("no vault matched; item must not be stored")
	}
}

func TestTryStoreFindsFirstFreeSlot(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	vID := f.vault(t, wsID, 72, model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"})

	// Occupy slots 0 and 1 of page 1 and leave a hole at slot 2.
	_ = f.store.ReplaceItem(model.Item{VaultID: vID, Page: 1, Slot: 0, Name: "a", Kind: "ore"})
	_ = f.store.ReplaceItem(model.Item{VaultID: vID, Page: 1, Slot: 1, Name: "b", Kind: "ore"})
	_ = f.store.ReplaceItem(model.Item{VaultID: vID, Page: 1, Slot: 3, Name: "d", Kind: "ore"})

	stored, ok, err := f.svc.TryStore("alice", model.Item{Name: "c", Kind: "ore"})
	if err != nil || !ok {
		t.Fatalf("TryStore: ok=%v err=%v", ok, err)
	}
	if stored.Page != 1 || stored.Slot != 2 {
		t.Fatalf("expected first hole (1,2), got (%d,%d)", stored.Page, stored.Slot)
	}
}

func TestTryStoreOverflowsToSecondPage(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	vID := f.vault(t, wsID, 72, model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"})

	for slot := 0; slot < model.PageSize; slot++ {
		_ = f.store.ReplaceItem(model.Item{VaultID: vID, Page: 1, Slot: slot, Name: "x", Kind: "ore"})
	}

	stored, ok, err := f.svc.TryStore("alice", model.Item{Name: "overflow", Kind: "ore"})
	if err != nil || !ok {
		t.Fatalf("TryStore: ok=%v err=%v", ok, err)
	}
	if stored.Page != 2 || stored.Slot != 0 {
		t.Fatalf("expected (2,0), got (%d,%d)", stored.Page, stored.Slot)
	}
}

func TestTryStoreFullVaultFallsThrough(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	full := f.vault(t, wsID, 1, model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"})
	_ = f.store.ReplaceItem(model.Item{VaultID: full, Page: 1, Slot: 0, Name: "x", Kind: "ore"})
	spare := f.vault(t, wsID, 36, model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"})

	stored, ok, err := f.svc.TryStore("alice", model.Item{Name: "coal", Kind: "ore"})
	if err != nil || !ok {
		t.Fatalf("TryStore: ok=%v err=%v", ok, err)
	}
	if stored.VaultID != spare {
		t.Fatalf("expected fallthrough to vault %d, got %d", spare, stored.VaultID)
	}
}

func TestTryStoreIndependentWorkspaceUsesActorScope(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "", model.WorkspaceIndependent)
	// Members list makes the actor see the independent workspace.
	_ = f.store.UpdateWorkspaceMembers(wsID, model.NewMemberSet("alice"))
	vID := f.vault(t, wsID, 36, model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"})
	f.svc.InvalidateAll()

	stored, ok, err := f.svc.TryStore("alice", model.Item{Name: "coal", Kind: "ore"})
	if err != nil || !ok {
		t.Fatalf("TryStore: ok=%v err=%v", ok, err)
	}
	if stored.Owner != "alice" {
		t.Fatalf("independent storage must be actor-scoped, got %q", stored.Owner)
	}

	shared, _ := f.store.GetItems(vID, "")
	if len(shared) != 0 {
		t.Fatalf("independent item leaked to shared scope: %+v", shared)
	}
}

func TestCandidateCacheInvalidatedByRuleChange(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	vID := f.vault(t, wsID, 36)

	// First attempt caches an empty candidate list.
	if _, ok, _ := f.svc.TryStore("alice", model.Item{Name: "coal", Kind: "ore"}); ok {
		t.Fatal("no rules yet; store must fail")
	}

	if _, err := f.store.InsertPickupRule(model.PickupRule{VaultID: vID, Kind: model.RuleAllow, Match: "kind:ore"}); err != nil {
		t.Fatalf("InsertPickupRule: %v", err)
	}
	f.caches.Rules.Invalidate(vID)
	f.bus.Publish(event.Event{Type: event.TypeRuleChanged, VaultID: vID})

	if _, ok, err := f.svc.TryStore("alice", model.Item{Name: "coal", Kind: "ore"}); err != nil || !ok {
		t.Fatalf("rule change must rebuild candidates: ok=%v err=%v", ok, err)
	}
}

func TestCandidateCacheInvalidatedOnDisconnect(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	f.vault(t, wsID, 36, model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"})

	if _, ok, _ := f.svc.TryStore("alice", model.Item{Name: "coal", Kind: "ore"}); !ok {
		t.Fatal("warmup store failed")
	}

	f.bus.Publish(event.Event{Type: event.TypeActorDisconnected, Actor: "alice"})
	f.svc.mu.Lock()
	_, cached := f.svc.candidates["alice"]
	f.svc.mu.Unlock()
	if cached {
		t.Fatal("disconnect must drop the candidate list")
	}
}

func TestTryStoreNotifiesViews(t *testing.T) {
	f := newFixture(t)
	wsID := f.workspace(t, "alice", model.WorkspacePublic)
	f.vault(t, wsID, 36, model.PickupRule{Kind: model.RuleAllow, Match: "kind:ore"})

	var gotVault, gotPage, gotSlot int
	f.svc.SetNotify(func(vaultID, page, slot int, _ model.Item) {
		gotVault, gotPage, gotSlot = vaultID, page, slot
	})

	stored, ok, err := f.svc.TryStore("alice", model.Item{Name: "coal", Kind: "ore"})
	if err != nil || !ok {
		t.Fatalf("TryStore: ok=%v err=%v", ok, err)
	}
	if gotVault != stored.VaultID || gotPage != stored.Page || gotSlot != stored.Slot {
		t.Fatalf("notify mismatch: got (%d,%d,%d) want (%d,%d,%d)",
			gotVault, gotPage, gotSlot, stored.VaultID, stored.Page, stored.Slot)
	}
}
