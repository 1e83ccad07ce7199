// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package viewsync

import (
	"fmt"
	"sync"

	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/logging"
	"github.com/stratavault/strata/internal/model"
)

// Viewer is one open view held by a transport on behalf of an actor.
// All methods are invoked on the dispatch loop goroutine.
type Viewer interface {
	// Actor identifies who holds the view.
	Actor() string
	// Connected reports whether the actor is still online. Disconnected
	// viewers are pruned lazily the next time their group is touched.
	Connected() bool
	// ApplySlotPatch replaces the content of one slot in the view.
	// A nil item clears the slot.
	ApplySlotPatch(slot int, item *model.Item)
	// Refresh tells the viewer to reload its contents from scratch.
	Refresh()
	// Close tears the view down on the transport side.
	Close()
}

type pageKey struct {
	vaultID int
	page    int
}

type searchKey struct {
	vaultID int
	params  string
}

// Registry tracks which viewers look at which vault pages and filtered
// views, and fans storage changes out to them. Slot patches go only to
// the exact (vault, page) group; filtered views get a refresh since a
// single slot change can move items in or out of the result set.
type Registry struct {
	loop *Loop
	bus  *event.Bus

	mu     sync.Mutex
	pages  map[pageKey]map[Viewer]struct{}
	search map[searchKey]map[Viewer]struct{}

	unsubscribe []func()
}

// NewRegistry creates a registry dispatching on loop and reacting to
// lifecycle events on bus. Call Start to attach the event handlers.
func NewRegistry(loop *Loop, bus *event.Bus) *Registry {
	return &Registry{
		loop:   loop,
		bus:    bus,
		pages:  make(map[pageKey]map[Viewer]struct{}),
		search: make(map[searchKey]map[Viewer]struct{}),
	}
}

// Start subscribes the registry to bus events it reacts to.
func (r *Registry) Start() {
	r.unsubscribe = append(r.unsubscribe,
		r.bus.Subscribe(event.TypeActorDisconnected, func(e event.Event) {
			r.CloseActor(e.Actor)
		}),
		r.bus.Subscribe(event.TypeVaultDeleted, func(e event.Event) {
			r.CloseVault(e.VaultID)
		}),
		r.bus.Subscribe(event.TypeVaultResized, func(e event.Event) {
			r.RefreshVault(e.VaultID)
		}),
	)
}

// Loop exposes the dispatch loop, mainly so callers can sequence work
// after pending broadcasts.
func (r *Registry) Loop() *Loop {
	return r.loop
}

// Stop detaches event handlers. The loop is owned by the caller.
func (r *Registry) Stop() {
	for _, off := range r.unsubscribe {
		off()
	}
	r.unsubscribe = nil
}

// OpenPage registers a viewer on a vault page and announces the open.
func (r *Registry) OpenPage(v Viewer, vaultID, page int) error {
	if page < 1 {
		return fmt.Errorf("viewsync: invalid page %d", page)
	}
	key := pageKey{vaultID: vaultID, page: page}
	r.mu.Lock()
	if r.pages[key] == nil {
		r.pages[key] = make(map[Viewer]struct{})
	}
	r.pages[key][v] = struct{}{}
	r.mu.Unlock()

	r.bus.Publish(event.Event{Type: event.TypeVaultOpened, Actor: v.Actor(), VaultID: vaultID, Page: page})
	return nil
}

// OpenSearch registers a viewer on a filtered whole-vault view.
func (r *Registry) OpenSearch(v Viewer, vaultID int, params FilterParams) {
	key := searchKey{vaultID: vaultID, params: params.key()}
	r.mu.Lock()
	if r.search[key] == nil {
		r.search[key] = make(map[Viewer]struct{})
	}
	r.search[key][v] = struct{}{}
	r.mu.Unlock()

	r.bus.Publish(event.Event{Type: event.TypeSearchOpened, Actor: v.Actor(), VaultID: vaultID})
}

// CloseViewer removes the viewer from every group without calling its
// Close; the transport already tore the view down.
func (r *Registry) CloseViewer(v Viewer) {
	r.mu.Lock()
	for key, group := range r.pages {
		if _, ok := group[v]; ok {
			delete(group, v)
			r.dropEmptyPageLocked(key)
			r.bus.Publish(event.Event{Type: event.TypeVaultClosed, Actor: v.Actor(), VaultID: key.vaultID, Page: key.page})
		}
	}
	for key, group := range r.search {
		if _, ok := group[v]; ok {
			delete(group, v)
			r.dropEmptySearchLocked(key)
			r.bus.Publish(event.Event{Type: event.TypeSearchClosed, Actor: v.Actor(), VaultID: key.vaultID})
		}
	}
	r.mu.Unlock()
}

// CloseActor closes every view the actor holds.
func (r *Registry) CloseActor(actor string) {
	for _, v := range r.collect(func(v Viewer) bool { return v.Actor() == actor }) {
		viewer := v
		r.loop.Submit(func() { viewer.Close() })
		r.CloseViewer(viewer)
	}
}

// CloseVault closes every view onto the vault, page and search alike.
func (r *Registry) CloseVault(vaultID int) {
	var victims []Viewer
	r.mu.Lock()
	for key, group := range r.pages {
		if key.vaultID != vaultID {
			continue
		}
		for v := range group {
			victims = append(victims, v)
		}
		delete(r.pages, key)
	}
	for key, group := range r.search {
		if key.vaultID != vaultID {
			continue
		}
		for v := range group {
			victims = append(victims, v)
		}
		delete(r.search, key)
	}
	r.mu.Unlock()

	for _, v := range victims {
		viewer := v
		r.loop.Submit(func() { viewer.Close() })
	}
	if len(victims) > 0 {
		logging.Debugf("viewsync: closed %d viewers of vault %d", len(victims), vaultID)
	}
}

// ItemSet pushes a slot change to every live viewer of the page and
// refreshes affected filtered views. The slot must be a content slot;
// out-of-range slots are ignored.
func (r *Registry) ItemSet(vaultID, page, slot int, item model.Item) {
	if slot < 0 || slot >= model.PageSize {
		return
	}
	it := item
	r.patchPage(vaultID, page, slot, &it)
	r.refreshSearchGroups(vaultID)
}

// ItemRemoved pushes a slot clear to the page group and refreshes
// filtered views.
func (r *Registry) ItemRemoved(vaultID, page, slot int) {
	if slot < 0 || slot >= model.PageSize {
		return
	}
	r.patchPage(vaultID, page, slot, nil)
	r.refreshSearchGroups(vaultID)
}

func (r *Registry) patchPage(vaultID, page, slot int, item *model.Item) {
	key := pageKey{vaultID: vaultID, page: page}
	for _, v := range r.livePageViewers(key) {
		viewer := v
		r.loop.Submit(func() { viewer.ApplySlotPatch(slot, item) })
	}
}

// refreshSearchGroups re-runs every filtered view of the vault. A single
// slot change can move items into or out of any result set, including
// replacing a previously matching item, so no group may be skipped.
func (r *Registry) refreshSearchGroups(vaultID int) {
	r.mu.Lock()
	var targets []Viewer
	for key, group := range r.search {
		if key.vaultID != vaultID {
			continue
		}
		for v := range group {
			if !v.Connected() {
				delete(group, v)
				continue
			}
			targets = append(targets, v)
		}
		r.dropEmptySearchLocked(key)
	}
	r.mu.Unlock()

	for _, v := range targets {
		viewer := v
		r.loop.Submit(func() { viewer.Refresh() })
	}
}

// RefreshVault forces a full reload of every view onto the vault. Used
// after bulk changes such as a resize or a restore.
func (r *Registry) RefreshVault(vaultID int) {
	var targets []Viewer
	r.mu.Lock()
	for key, group := range r.pages {
		if key.vaultID != vaultID {
			continue
		}
		for v := range group {
			if !v.Connected() {
				delete(group, v)
				continue
			}
			targets = append(targets, v)
		}
		r.dropEmptyPageLocked(key)
	}
	for key, group := range r.search {
		if key.vaultID != vaultID {
			continue
		}
		for v := range group {
			if !v.Connected() {
				delete(group, v)
				continue
			}
			targets = append(targets, v)
		}
		r.dropEmptySearchLocked(key)
	}
	r.mu.Unlock()

	for _, v := range targets {
		viewer := v
		r.loop.Submit(func() { viewer.Refresh() })
	}
}

// Viewers reports the number of live viewers on a vault page.
func (r *Registry) Viewers(vaultID, page int) int {
	return len(r.livePageViewers(pageKey{vaultID: vaultID, page: page}))
}

// livePageViewers snapshots the group, pruning disconnected viewers.
func (r *Registry) livePageViewers(key pageKey) []Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	group := r.pages[key]
	out := make([]Viewer, 0, len(group))
	for v := range group {
		if !v.Connected() {
			delete(group, v)
			continue
		}
		out = append(out, v)
	}
	r.dropEmptyPageLocked(key)
	return out
}

func (r *Registry) collect(keep func(Viewer) bool) []Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[Viewer]struct{})
	var out []Viewer
	for _, group := range r.pages {
		for v := range group {
			if _, dup := seen[v]; !dup && keep(v) {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	for _, group := range r.search {
		for v := range group {
			if _, dup := seen[v]; !dup && keep(v) {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	return out
}

func (r *Registry) dropEmptyPageLocked(key pageKey) {
	if len(r.pages[key]) == 0 {
		delete(r.pages, key)
	}
}

func (r *Registry) dropEmptySearchLocked(key searchKey) {
	if len(r.search[key]) == 0 {
		delete(r.search, key)
	}
}
