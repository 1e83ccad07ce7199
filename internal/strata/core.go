// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

import (
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/entitycache"
	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/viewsync"
)

// Core wires the domain operators to the store, the entity caches, the
// event bus and (optionally) the viewer registry. All mutations follow
// persist-first, cache-second: the store is authoritative and the cache
// can only ever lag it.
type Core struct {
	store  db.Store
	caches *entitycache.Service
	bus    *event.Bus
	views  *viewsync.Registry
	names  NameRules
}

// New creates a Core. views may be nil when no view transport exists
// (CLI maintenance commands, tests).
func New(store db.Store, caches *entitycache.Service, bus *event.Bus, views *viewsync.Registry, names NameRules) *Core {
	return &Core{store: store, caches: caches, bus: bus, views: views, names: names}
}

// Caches exposes the entity facades for read paths.
func (c *Core) Caches() *entitycache.Service {
	return c.caches
}

// Bus exposes the event bus for subscribers.
func (c *Core) Bus() *event.Bus {
	return c.bus
}

// ActorConnected seeds the actor's caches and announces the connect.
func (c *Core) ActorConnected(actor string) {
	c.caches.PreloadActor(actor)
	c.bus.Publish(event.Event{Type: event.TypeActorConnected, Actor: actor})
}

// ActorDisconnected evicts the actor's caches and announces the leave.
func (c *Core) ActorDisconnected(actor string) {
	c.bus.Publish(event.Event{Type: event.TypeActorDisconnected, Actor: actor})
	c.caches.EvictActor(actor)
}

// casWorkspaceUsed applies a conditional workspace-count change of
// delta for the account. On success the cached quota is refreshed; on a
// lost race the cache is invalidated and ReasonConflict returned. There
// is no internal retry.
func (c *Core) casWorkspaceUsed(account string, delta int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	next := q.WorkspaceUsed + delta
	if next < 0 {
		c.caches.Quotas.Invalidate(account)
		return fail(ReasonConflict), nil
	}
	if delta > 0 && !q.Unlimited && next > q.WorkspaceLimit {
		return fail(ReasonQuotaExceeded), nil
	}
	won, err := c.store.CASQuotaWorkspaceUsed(account, q.WorkspaceUsed, next)
	if err != nil {
		return fail(ReasonConflict), err
	}
	if !won {
		c.caches.Quotas.Invalidate(account)
		return fail(ReasonConflict), nil
	}
	if _, err := c.caches.Quotas.Refresh(account); err != nil {
		// The counter is committed; a failed refresh only leaves the
		// cache stale until its ttl.
		c.caches.Quotas.Invalidate(account)
	}
	return ok(), nil
}

// casSizeUsed is the capacity twin of casWorkspaceUsed.
func (c *Core) casSizeUsed(account string, delta int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	next := q.SizeUsed + delta
	if next < 0 {
		c.caches.Quotas.Invalidate(account)
		return fail(ReasonConflict), nil
	}
	if delta > 0 && !q.Unlimited && next > q.SizeLimit {
		return fail(ReasonQuotaExceeded), nil
	}
	won, err := c.store.CASQuotaSizeUsed(account, q.SizeUsed, next)
	if err != nil {
		return fail(ReasonConflict), err
	}
	if !won {
		c.caches.Quotas.Invalidate(account)
		return fail(ReasonConflict), nil
	}
	if _, err := c.caches.Quotas.Refresh(account); err != nil {
		c.caches.Quotas.Invalidate(account)
	}
	return ok(), nil
}
