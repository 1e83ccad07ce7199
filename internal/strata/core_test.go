// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/entitycache"
	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/model"
	"github.com/stratavault/strata/internal/viewsync"
)

func newCore(t *testing.T) (*Core, db.Store) {
	t.Helper()
	dsn := "file:test_core_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	store, err := db.NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	caches := entitycache.NewService(store, cache.NewMemoryProvider(), time.Minute)
	caches.Quotas.DefaultWorkspaceLimit = 3
	caches.Quotas.DefaultSizeLimit = 300
	return New(store, caches, event.NewBus(), nil, DefaultNameRules()), store
}

func mustCreateWorkspace(t *testing.T, c *Core, owner, name string) *model.Workspace {
	t.Helper()
	res, w, err := c.CreateWorkspace(owner, name, "", model.WorkspacePublic)
	if err != nil || !res.OK {
		t.Fatalf("CreateWorkspace(%s): %+v %v", name, res, err)
	}
	return w
}

func mustCreateVault(t *testing.T, c *Core, wsID int, name string, size int) *model.Vault {
	t.Helper()
	res, v, err := c.CreateVault(wsID, name, "", size)
	if err != nil || !res.OK {
		t.Fatalf("CreateVault(%s): %+v %v", name, res, err)
	}
	return v
}

func TestCreateWorkspaceChargesQuota(t *testing.T) {
	c, _ := newCore(t)

	w := mustCreateWorkspace(t, c, "alice", "main")
	if w.ID == 0 {
		t.Fatal("missing workspace id")
	}

	q, err := c.GetQuota("alice")
	if err != nil {
		t.Fatalf("GetQuota: %v", err)
	}
	if q.WorkspaceUsed != 1 {
		t.Fatalf("workspace counter not charged: %+v", q)
	}
}

func TestCreateWorkspaceRejections(t *testing.T) {
	c, _ := newCore(t)
	mustCreateWorkspace(t, c, "alice", "main")

	cases := []struct {
		name   string
		typ    model.WorkspaceType
		reason Reason
	}{
		{"main", model.WorkspacePublic, ReasonAlreadyExists},
		{"x", model.WorkspacePublic, ReasonNameLength},
		{strings.Repeat("a", 33), model.WorkspacePublic, ReasonNameLength},
		{"bad&name", model.WorkspacePublic, ReasonNameColor},
		{"bad/name", model.WorkspacePublic, ReasonNameInvalid},
		{"   ", model.WorkspacePublic, ReasonNameInvalid},
		{"fresh", model.WorkspaceType("BOGUS"), ReasonTypeInvalid},
		{"fresh", model.WorkspaceIndependent, ReasonTypeInvalid},
	}
	for _, tc := range cases {
		res, _, err := c.CreateWorkspace("alice", tc.name, "", tc.typ)
		if err != nil {
			t.Fatalf("CreateWorkspace(%q): %v", tc.name, err)
		}
		if res.OK || res.Reason != tc.reason {
			t.Errorf("CreateWorkspace(%q, %s) = %+v, want reason %s", tc.name, tc.typ, res, tc.reason)
		}
	}

	// A rejected create leaves the counter untouched.
	q, _ := c.GetQuota("alice")
	if q.WorkspaceUsed != 1 {
		t.Fatalf("rejections must not charge quota: %+v", q)
	}
}

func TestWorkspaceQuotaExhaustion(t *testing.T) {
	c, _ := newCore(t)
	mustCreateWorkspace(t, c, "alice", "one")
	mustCreateWorkspace(t, c, "alice", "two")
	mustCreateWorkspace(t, c, "alice", "three")

	res, _, err := c.CreateWorkspace("alice", "four", "", model.WorkspacePublic)
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	if res.OK || res.Reason != ReasonQuotaExceeded {
		t.Fatalf("expected quota-exceeded, got %+v", res)
	}

	// Unlimited lifts the ceiling.
	if res, err := c.SetUnlimited("alice", true); err != nil || !res.OK {
		t.Fatalf("SetUnlimited: %+v %v", res, err)
	}
	if res, _, err := c.CreateWorkspace("alice", "four", "", model.WorkspacePublic); err != nil || !res.OK {
		t.Fatalf("unlimited create: %+v %v", res, err)
	}
}

func TestDeleteWorkspaceRefundsQuota(t *testing.T) {
	c, _ := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	mustCreateVault(t, c, w.ID, "gems", 36)

	res, err := c.DeleteWorkspace(w.ID)
	if err != nil || !res.OK {
		t.Fatalf("DeleteWorkspace: %+v %v", res, err)
	}

	q, _ := c.GetQuota("alice")
	if q.WorkspaceUsed != 0 || q.SizeUsed != 0 {
		t.Fatalf("counters not refunded: %+v", q)
	}
	if _, err := c.WorkspacesFor("alice"); err != nil {
		t.Fatalf("WorkspacesFor: %v", err)
	}
}

func TestCreateVaultChargesSize(t *testing.T) {
	c, _ := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	v := mustCreateVault(t, c, w.ID, "gems", 72)

	if v.MaxPage() != 2 {
		t.Fatalf("expected 2 pages, got %d", v.MaxPage())
	}
	q, _ := c.GetQuota("alice")
	if q.SizeUsed != 72 {
		t.Fatalf("size counter not charged: %+v", q)
	}

	res, _, err := c.CreateVault(w.ID, "gems", "", 36)
	if err != nil || res.OK || res.Reason != ReasonAlreadyExists {
		t.Fatalf("duplicate vault: %+v %v", res, err)
	}

	// 300-slot limit, 72 used: an oversized vault is rejected untouched.
	res, _, err = c.CreateVault(w.ID, "huge", "", 300)
	if err != nil || res.OK || res.Reason != ReasonQuotaExceeded {
		t.Fatalf("oversized vault: %+v %v", res, err)
	}
	q, _ = c.GetQuota("alice")
	if q.SizeUsed != 72 {
		t.Fatalf("rejected create charged quota: %+v", q)
	}
}

func TestConcurrentAddSizeExactlyOneWins(t *testing.T) {
	c, _ := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	v := mustCreateVault(t, c, w.ID, "gems", 10)

	// 300-slot limit, 10 used. Two adds of 150 each cannot both fit.
	var wg sync.WaitGroup
	results := make([]Result, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.AddVaultSize(v.ID, 150)
			if err != nil {
				t.Errorf("AddVaultSize: %v", err)
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, r := range results {
		if r.OK {
			wins++
		} else if r.Reason != ReasonConflict && r.Reason != ReasonQuotaExceeded {
			t.Fatalf("unexpected failure reason: %+v", r)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d (%+v)", wins, results)
	}

	q, _ := c.GetQuota("alice")
	if q.SizeUsed != 160 {
		t.Fatalf("expected sizeUsed 160, got %d", q.SizeUsed)
	}
	if q.SizeUsed > q.SizeLimit {
		t.Fatalf("quota invariant broken: %+v", q)
	}
}

func TestRemoveVaultSizeGuards(t *testing.T) {
	c, store := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	v := mustCreateVault(t, c, w.ID, "gems", 72)

	// An item on page 2 blocks shrinking below 36 slots.
	_ = store.ReplaceItem(model.Item{VaultID: v.ID, Page: 2, Slot: 0, Name: "coal"})
	c.Caches().Items.InvalidateVault(v.ID)

	res, err := c.RemoveVaultSize(v.ID, 40)
	if err != nil || res.OK || res.Reason != ReasonSizeInUse {
		t.Fatalf("occupied shrink: %+v %v", res, err)
	}

	res, err = c.RemoveVaultSize(v.ID, 100)
	if err != nil || res.OK || res.Reason != ReasonSizeInvalid {
		t.Fatalf("negative shrink: %+v %v", res, err)
	}

	// Shrinking the free tail works and refunds quota.
	res, err = c.RemoveVaultSize(v.ID, 30)
	if err != nil || !res.OK {
		t.Fatalf("valid shrink: %+v %v", res, err)
	}
	q, _ := c.GetQuota("alice")
	if q.SizeUsed != 42 {
		t.Fatalf("expected sizeUsed 42, got %d", q.SizeUsed)
	}
}

func TestDeleteVaultCascadesAndRefunds(t *testing.T) {
	c, store := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	other := mustCreateVault(t, c, w.ID, "other", 28)
	v := mustCreateVault(t, c, w.ID, "gems", 72)

	// sizeUsed is now 100: a 28-slot vault plus the 72-slot one.
	_ = store.ReplaceItem(model.Item{VaultID: v.ID, Page: 1, Slot: 0, Name: "coal"})
	_ = store.ReplaceItem(model.Item{VaultID: v.ID, Page: 2, Slot: 5, Name: "iron"})
	_ = store.UpsertSetting(v.ID, "sort", "alice", "name")
	_, _ = store.InsertPickupRule(model.PickupRule{VaultID: v.ID, Kind: model.RuleAllow, Match: "kind:ore"})

	res, err := c.DeleteVault(v.ID)
	if err != nil || !res.OK {
		t.Fatalf("DeleteVault: %+v %v", res, err)
	}

	q, _ := c.GetQuota("alice")
	if q.SizeUsed != 28 {
		t.Fatalf("expected sizeUsed 28 after deleting 72 of 100, got %d", q.SizeUsed)
	}

	items, _ := store.GetItems(v.ID, "")
	rules, _ := store.GetPickupRules(v.ID)
	if len(items) != 0 || len(rules) != 0 {
		t.Fatalf("cascade incomplete: %d items, %d rules", len(items), len(rules))
	}
	if _, err := store.GetSetting(v.ID, "sort", "alice"); err == nil {
		t.Fatal("setting survived cascade")
	}

	// The sibling vault is untouched.
	if _, err := c.Caches().Vaults.Get(other.ID); err != nil {
		t.Fatalf("sibling vault lost: %v", err)
	}
}

func TestPutItemScopesAndValidates(t *testing.T) {
	c, store := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	v := mustCreateVault(t, c, w.ID, "gems", 40)

	res, err := c.PutItem("alice", model.Item{VaultID: v.ID, Page: 1, Slot: 3, Name: "coal", Kind: "ore"})
	if err != nil || !res.OK {
		t.Fatalf("PutItem: %+v %v", res, err)
	}

	// Shared workspace: stored without an owner discriminator.
	rows, _ := store.GetItems(v.ID, "")
	if len(rows) != 1 || rows[0].Owner != "" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	cases := []struct {
		page, slot int
	}{
		{0, 0},  // page below range
		{3, 0},  // page beyond the 2 pages of a 40-slot vault
		{1, -1}, // negative slot
		{1, 36}, // slot beyond page
		{2, 4},  // page 2 of a 40-slot vault has only 4 slots
	}
	for _, tc := range cases {
		res, err := c.PutItem("alice", model.Item{VaultID: v.ID, Page: tc.page, Slot: tc.slot, Name: "x"})
		if err != nil {
			t.Fatalf("PutItem(%d,%d): %v", tc.page, tc.slot, err)
		}
		if res.OK || res.Reason != ReasonSlotInvalid {
			t.Errorf("PutItem(%d,%d) = %+v, want slot-invalid", tc.page, tc.slot, res)
		}
	}

	// Last valid slot of the trailing partial page.
	res, err = c.PutItem("alice", model.Item{VaultID: v.ID, Page: 2, Slot: 3, Name: "edge"})
	if err != nil || !res.OK {
		t.Fatalf("trailing slot: %+v %v", res, err)
	}

	if res, err := c.RemoveItem("alice", v.ID, 1, 3); err != nil || !res.OK {
		t.Fatalf("RemoveItem: %+v %v", res, err)
	}
	page, _ := c.PageItems("alice", v.ID, 1)
	if len(page) != 0 {
		t.Fatalf("page not empty after removal: %+v", page)
	}
}

func TestSearchItemsFilters(t *testing.T) {
	c, _ := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	v := mustCreateVault(t, c, w.ID, "gems", 72)

	_, _ = c.PutItem("alice", model.Item{VaultID: v.ID, Page: 1, Slot: 0, Name: "coal", Kind: "ore"})
	_, _ = c.PutItem("alice", model.Item{VaultID: v.ID, Page: 2, Slot: 1, Name: "iron ingot", Kind: "ore"})
	_, _ = c.PutItem("alice", model.Item{VaultID: v.ID, Page: 1, Slot: 5, Name: "hammer", Kind: "tool"})

	found, err := c.SearchItems("alice", v.ID, viewsync.FilterParams{Kind: "ore"})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 ore items, got %+v", found)
	}
}

func TestRuleLifecycleInvalidatesCache(t *testing.T) {
	c, _ := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	v := mustCreateVault(t, c, w.ID, "gems", 36)

	var changes int
	c.Bus().Subscribe(event.TypeRuleChanged, func(event.Event) { changes++ })

	res, r, err := c.AddRule(v.ID, model.RuleAllow, "kind:ore")
	if err != nil || !res.OK {
		t.Fatalf("AddRule: %+v %v", res, err)
	}
	if res, _, err := c.AddRule(v.ID, model.RuleKind("MAYBE"), "x"); err != nil || res.Reason != ReasonTypeInvalid {
		t.Fatalf("bad kind: %+v %v", res, err)
	}
	if res, _, err := c.AddRule(v.ID, model.RuleAllow, "  "); err != nil || res.Reason != ReasonNameInvalid {
		t.Fatalf("blank match: %+v %v", res, err)
	}

	if res, err := c.UpdateRule(r.ID, v.ID, "kind:mineral"); err != nil || !res.OK {
		t.Fatalf("UpdateRule: %+v %v", res, err)
	}
	rules, _ := c.VaultRules(v.ID)
	if len(rules) != 1 || rules[0].Match != "kind:mineral" {
		t.Fatalf("rule cache stale: %+v", rules)
	}

	if res, err := c.RemoveRule(r.ID, v.ID); err != nil || !res.OK {
		t.Fatalf("RemoveRule: %+v %v", res, err)
	}
	rules, _ = c.VaultRules(v.ID)
	if len(rules) != 0 {
		t.Fatalf("rule survived removal: %+v", rules)
	}

	if changes != 3 {
		t.Fatalf("expected 3 rule-change events, got %d", changes)
	}
}

func TestQuotaLimitGuards(t *testing.T) {
	c, _ := newCore(t)
	mustCreateWorkspace(t, c, "alice", "one")
	mustCreateWorkspace(t, c, "alice", "two")

	if res, err := c.SetWorkspaceLimit("alice", 1); err != nil || res.Reason != ReasonLimitBelowUsage {
		t.Fatalf("limit below usage: %+v %v", res, err)
	}
	if res, err := c.SetWorkspaceLimit("alice", 2); err != nil || !res.OK {
		t.Fatalf("limit at usage: %+v %v", res, err)
	}
	if res, err := c.AddWorkspaceLimit("alice", 3); err != nil || !res.OK {
		t.Fatalf("AddWorkspaceLimit: %+v %v", res, err)
	}
	q, _ := c.GetQuota("alice")
	if q.WorkspaceLimit != 5 {
		t.Fatalf("expected limit 5, got %d", q.WorkspaceLimit)
	}
	if res, err := c.RemoveWorkspaceLimit("alice", 10); err != nil || res.Reason != ReasonLimitBelowUsage {
		t.Fatalf("remove past usage: %+v %v", res, err)
	}

	// Reset restores defaults but never below usage.
	if res, err := c.ResetQuota("alice", 1, 300); err != nil || res.Reason != ReasonLimitBelowUsage {
		t.Fatalf("reset below usage: %+v %v", res, err)
	}
	if res, err := c.ResetQuota("alice", 3, 300); err != nil || !res.OK {
		t.Fatalf("reset: %+v %v", res, err)
	}
}

func TestSetUnlimitedOffGuard(t *testing.T) {
	c, _ := newCore(t)
	if res, err := c.SetUnlimited("alice", true); err != nil || !res.OK {
		t.Fatalf("SetUnlimited on: %+v %v", res, err)
	}
	mustCreateWorkspace(t, c, "alice", "one")
	mustCreateWorkspace(t, c, "alice", "two")
	mustCreateWorkspace(t, c, "alice", "three")
	mustCreateWorkspace(t, c, "alice", "four")

	// 4 used > 3 limit: unlimited cannot be revoked until limits catch up.
	if res, err := c.SetUnlimited("alice", false); err != nil || res.Reason != ReasonLimitBelowUsage {
		t.Fatalf("revoke with excess usage: %+v %v", res, err)
	}
	if res, err := c.SetWorkspaceLimit("alice", 4); err != nil || !res.OK {
		t.Fatalf("raise limit: %+v %v", res, err)
	}
	if res, err := c.SetUnlimited("alice", false); err != nil || !res.OK {
		t.Fatalf("revoke after raise: %+v %v", res, err)
	}
}

func TestMembershipUpdates(t *testing.T) {
	c, _ := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")

	if res, err := c.AddWorkspaceMember(w.ID, "bob"); err != nil || !res.OK {
		t.Fatalf("AddWorkspaceMember: %+v %v", res, err)
	}
	if res, _ := c.AddWorkspaceMember(w.ID, "bob"); res.Reason != ReasonAlreadyExists {
		t.Fatalf("duplicate member: %+v", res)
	}

	list, err := c.WorkspacesFor("bob")
	if err != nil || len(list) != 1 {
		t.Fatalf("bob's workspaces: %v %v", list, err)
	}

	if res, err := c.RemoveWorkspaceMember(w.ID, "bob"); err != nil || !res.OK {
		t.Fatalf("RemoveWorkspaceMember: %+v %v", res, err)
	}
	if res, _ := c.RemoveWorkspaceMember(w.ID, "bob"); res.Reason != ReasonNotFound {
		t.Fatalf("removing absent member: %+v", res)
	}
	list, _ = c.WorkspacesFor("bob")
	if len(list) != 0 {
		t.Fatalf("bob still sees the workspace: %+v", list)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	c, _ := newCore(t)
	w := mustCreateWorkspace(t, c, "alice", "main")
	v := mustCreateVault(t, c, w.ID, "gems", 36)

	if _, present, _ := c.Setting(v.ID, "sort", "alice"); present {
		t.Fatal("setting should start absent")
	}
	if err := c.SetSetting(v.ID, "sort", "alice", "name"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	val, present, _ := c.Setting(v.ID, "sort", "alice")
	if !present || val != "name" {
		t.Fatalf("setting round trip: present=%v val=%q", present, val)
	}
	// Per-actor scope: bob sees nothing.
	if _, present, _ := c.Setting(v.ID, "sort", "bob"); present {
		t.Fatal("setting leaked across actors")
	}
	if err := c.RemoveSetting(v.ID, "sort", "alice"); err != nil {
		t.Fatalf("RemoveSetting: %v", err)
	}
}
