// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package entitycache

import (
	"strings"
	"testing"
	"time"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/model"
)

func newTestService(t *testing.T) (*Service, db.Store, *cache.MemoryProvider) {
	t.Helper()
	dsn := "file:test_ec_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	store, err := db.NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	provider := cache.NewMemoryProvider()
	return NewService(store, provider, time.Minute), store, provider
}

func TestQuotaCacheCreatesDefault(t *testing.T) {
	svc, store, provider := newTestService(t)
	svc.Quotas.DefaultWorkspaceLimit = 3
	svc.Quotas.DefaultSizeLimit = 108

	q, err := svc.Quotas.Get("newcomer")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if q.WorkspaceLimit != 3 || q.SizeLimit != 108 {
		t.Fatalf("defaults not applied: %+v", q)
	}

	// The default row was persisted, not just cached.
	stored, err := store.GetQuota("newcomer")
	if err != nil {
		t.Fatalf("store.GetQuota: %v", err)
	}
	if stored.WorkspaceLimit != 3 {
		t.Fatalf("default quota not persisted: %+v", stored)
	}

	if !provider.Exists("quota:newcomer") {
		t.Fatal("quota not cached after read-through")
	}
}

func TestQuotaCacheServesStaleUntilInvalidated(t *testing.T) {
	svc, store, _ := newTestService(t)
	if _, err := store.InsertQuota(model.Quota{Account: "alice", WorkspaceLimit: 1}); err != nil {
		t.Fatalf("InsertQuota: %v", err)
	}

	if _, err := svc.Quotas.Get("alice"); err != nil {
		t.Fatalf("warm read: %v", err)
	}
	if err := store.SetQuotaWorkspaceLimit("alice", 9); err != nil {
		t.Fatalf("SetQuotaWorkspaceLimit: %v", err)
	}

	q, _ := svc.Quotas.Get("alice")
	if q.WorkspaceLimit != 1 {
		t.Fatalf("expected cached value 1, got %d", q.WorkspaceLimit)
	}

	q, err := svc.Quotas.Refresh("alice")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if q.WorkspaceLimit != 9 {
		t.Fatalf("refresh did not reload: %+v", q)
	}
}

func TestWorkspaceCacheInvalidation(t *testing.T) {
	svc, store, provider := newTestService(t)
	id, _ := store.InsertWorkspace(model.Workspace{Name: "ws", Type: model.WorkspacePublic, Owner: "alice"})

	if _, err := svc.Workspaces.Get(id); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := svc.Workspaces.GetForActor("alice"); err != nil {
		t.Fatalf("GetForActor: %v", err)
	}
	if _, err := svc.Workspaces.GetForActor("bob"); err != nil {
		t.Fatalf("GetForActor bob: %v", err)
	}

	svc.Workspaces.Invalidate(id)
	if provider.Exists("workspace:actor:alice") || provider.Exists("workspace:actor:bob") {
		t.Fatal("workspace invalidation must drop all actor lists")
	}
}

func TestIndependentWorkspaceCachedWithoutTTL(t *testing.T) {
	svc, store, provider := newTestService(t)
	if err := store.EnsureIndependentWorkspace(); err != nil {
		t.Fatalf("EnsureIndependentWorkspace: %v", err)
	}

	w, err := svc.Workspaces.GetIndependent()
	if err != nil {
		t.Fatalf("GetIndependent: %v", err)
	}
	if !w.Independent() {
		t.Fatalf("wrong type: %s", w.Type)
	}
	if !provider.Exists("workspace:independent") {
		t.Fatal("independent workspace not cached")
	}
}

func TestItemCacheWriteThrough(t *testing.T) {
	svc, store, _ := newTestService(t)
	wsID, _ := store.InsertWorkspace(model.Workspace{Name: "ws", Type: model.WorkspacePublic, Owner: "alice"})
	vID, _ := store.InsertVault(model.Vault{Name: "v", WorkspaceID: wsID, Size: 36})

	// Warm the page so Put patches rather than invalidates.
	if _, err := svc.Items.GetPage(vID, 1, ""); err != nil {
		t.Fatalf("GetPage: %v", err)
	}

	if err := svc.Items.Put(model.Item{VaultID: vID, Page: 1, Slot: 2, Name: "coal", Kind: "ore"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	page, err := svc.Items.GetPage(vID, 1, "")
	if err != nil {
		t.Fatalf("GetPage after put: %v", err)
	}
	if len(page) != 1 || page[0].Name != "coal" {
		t.Fatalf("cached page not patched: %+v", page)
	}

	// Overwrite the same slot.
	if err := svc.Items.Put(model.Item{VaultID: vID, Page: 1, Slot: 2, Name: "iron", Kind: "ore"}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	page, _ = svc.Items.GetPage(vID, 1, "")
	if len(page) != 1 || page[0].Name != "iron" {
		t.Fatalf("slot overwrite not patched: %+v", page)
	}

	if err := svc.Items.Remove(vID, 1, 2, ""); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	page, _ = svc.Items.GetPage(vID, 1, "")
	if len(page) != 0 {
		t.Fatalf("removal not patched: %+v", page)
	}

	// Store agrees with the cache.
	rows, _ := store.GetPageItems(vID, 1, "")
	if len(rows) != 0 {
		t.Fatalf("store row survived removal: %+v", rows)
	}
}

func TestItemCachePatchKeepsSlotOrder(t *testing.T) {
	svc, store, _ := newTestService(t)
	wsID, _ := store.InsertWorkspace(model.Workspace{Name: "ws", Type: model.WorkspacePublic, Owner: "alice"})
	vID, _ := store.InsertVault(model.Vault{Name: "v", WorkspaceID: wsID, Size: 72})

	// Warm both list shapes so the out-of-order writes hit the patch path.
	if _, err := svc.Items.GetPage(vID, 1, ""); err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if _, err := svc.Items.GetAll(vID, ""); err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	for _, slot := range []int{9, 1, 5, 0} {
		if err := svc.Items.Put(model.Item{VaultID: vID, Page: 1, Slot: slot, Name: "x"}); err != nil {
			t.Fatalf("Put slot %d: %v", slot, err)
		}
	}
	if err := svc.Items.Put(model.Item{VaultID: vID, Page: 2, Slot: 0, Name: "x"}); err != nil {
		t.Fatalf("Put page 2: %v", err)
	}

	page, err := svc.Items.GetPage(vID, 1, "")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	want := []int{0, 1, 5, 9}
	if len(page) != len(want) {
		t.Fatalf("page length %d, want %d", len(page), len(want))
	}
	for i, it := range page {
		if it.Slot != want[i] {
			t.Fatalf("cached page out of slot order: %+v", page)
		}
	}

	all, err := svc.Items.GetAll(vID, "")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if cur.Page < prev.Page || (cur.Page == prev.Page && cur.Slot <= prev.Slot) {
			t.Fatalf("cached vault list out of order: %+v", all)
		}
	}
}

func TestItemCacheInvalidateVault(t *testing.T) {
	svc, store, provider := newTestService(t)
	wsID, _ := store.InsertWorkspace(model.Workspace{Name: "ws", Type: model.WorkspacePublic, Owner: "alice"})
	vID, _ := store.InsertVault(model.Vault{Name: "v", WorkspaceID: wsID, Size: 72})

	_, _ = svc.Items.GetPage(vID, 1, "")
	_, _ = svc.Items.GetPage(vID, 2, "")
	_, _ = svc.Items.GetAll(vID, "")

	svc.Items.InvalidateVault(vID)
	if len(provider.Keys("items:")) != 0 {
		t.Fatalf("item keys survived invalidation: %v", provider.Keys("items:"))
	}
}

func TestSettingCacheNegativeEntries(t *testing.T) {
	svc, store, _ := newTestService(t)
	wsID, _ := store.InsertWorkspace(model.Workspace{Name: "ws", Type: model.WorkspacePublic, Owner: "alice"})
	vID, _ := store.InsertVault(model.Vault{Name: "v", WorkspaceID: wsID, Size: 36})

	_, present, err := svc.Settings.Get(vID, "sort", "alice")
	if err != nil || present {
		t.Fatalf("unset setting should be absent: present=%v err=%v", present, err)
	}

	// Direct store write is invisible while the absence is cached.
	_ = store.UpsertSetting(vID, "sort", "alice", "name")
	_, present, _ = svc.Settings.Get(vID, "sort", "alice")
	if present {
		t.Fatal("negative entry should still mask the store")
	}

	if err := svc.Settings.Put(vID, "sort", "alice", "kind"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	val, present, _ := svc.Settings.Get(vID, "sort", "alice")
	if !present || val != "kind" {
		t.Fatalf("write-through failed: present=%v val=%q", present, val)
	}

	if err := svc.Settings.Remove(vID, "sort", "alice"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, present, _ = svc.Settings.Get(vID, "sort", "alice")
	if present {
		t.Fatal("removed setting still present")
	}
}

func TestRuleCacheBatchLoad(t *testing.T) {
	svc, store, provider := newTestService(t)
	wsID, _ := store.InsertWorkspace(model.Workspace{Name: "ws", Type: model.WorkspacePublic, Owner: "alice"})
	v1, _ := store.InsertVault(model.Vault{Name: "a", WorkspaceID: wsID, Size: 36})
	v2, _ := store.InsertVault(model.Vault{Name: "b", WorkspaceID: wsID, Size: 36})
	_, _ = store.InsertPickupRule(model.PickupRule{VaultID: v1, Kind: model.RuleDeny, Match: "name:cursed"})

	byVault, err := svc.Rules.BatchLoad([]int{v1, v2})
	if err != nil {
		t.Fatalf("BatchLoad: %v", err)
	}
	if len(byVault[v1]) != 1 || len(byVault[v2]) != 0 {
		t.Fatalf("unexpected batch result: %v", byVault)
	}
	// Rule-free vaults get cached too.
	if len(provider.Keys("rules:")) != 2 {
		t.Fatalf("expected 2 cached rule keys, got %v", provider.Keys("rules:"))
	}

	rules, err := svc.Rules.Get(v1)
	if err != nil || len(rules) != 1 {
		t.Fatalf("Get after batch: %v (%d rules)", err, len(rules))
	}
}

func TestServicePreloadAndEvict(t *testing.T) {
	svc, store, provider := newTestService(t)
	wsID, _ := store.InsertWorkspace(model.Workspace{Name: "ws", Type: model.WorkspacePublic, Owner: "alice"})
	vID, _ := store.InsertVault(model.Vault{Name: "v", WorkspaceID: wsID, Size: 36})
	_, _ = store.InsertPickupRule(model.PickupRule{VaultID: vID, Kind: model.RuleAllow, Match: "kind:ore"})

	svc.PreloadActor("alice")

	stats := svc.Stats()
	if stats.Quotas != 1 || stats.Workspaces == 0 || stats.Vaults == 0 || stats.Rules != 1 {
		t.Fatalf("preload incomplete: %+v", stats)
	}

	// Warm an owner-scoped item list too.
	_, _ = svc.Items.GetPage(vID, 1, "alice")
	_, _ = svc.Items.GetPage(vID, 1, "")

	svc.EvictActor("alice")
	if provider.Exists("quota:alice") || provider.Exists("workspace:actor:alice") {
		t.Fatal("actor keys survived eviction")
	}
	if provider.Exists("items:" + itemKeySuffix(vID, "alice")) {
		t.Fatal("owner-scoped item list survived eviction")
	}
	// Shared entries are untouched.
	if !provider.Exists(itemPageKey(vID, 1, "")) {
		t.Fatal("shared item list was evicted")
	}
}

func itemKeySuffix(vaultID int, owner string) string {
	return strings.TrimPrefix(itemPageKey(vaultID, 1, owner), "items:")
}

func TestCorruptEntryEvictedAndReloaded(t *testing.T) {
	svc, store, provider := newTestService(t)
	if _, err := store.InsertQuota(model.Quota{Account: "alice", WorkspaceLimit: 4}); err != nil {
		t.Fatalf("InsertQuota: %v", err)
	}

	provider.Set("quota:alice", []byte("{not json"), time.Minute)

	q, err := svc.Quotas.Get("alice")
	if err != nil {
		t.Fatalf("Get with corrupt entry: %v", err)
	}
	if q.WorkspaceLimit != 4 {
		t.Fatalf("reload after corrupt entry failed: %+v", q)
	}
}
