// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

import (
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/model"
	"github.com/stratavault/strata/internal/viewsync"
)

// PutItem stores the item into its vault slot on behalf of actor. The
// owner scope is derived from the workspace type, never trusted from
// the caller. Same-slot writes all funnel through here, which is what
// keeps per-slot broadcast ordering stable.
func (c *Core) PutItem(actor string, item model.Item) (Result, error) {
	v, w, res, err := c.vaultWithWorkspace(item.VaultID)
	if !res.OK {
		return res, err
	}
	if item.Page < 1 || item.Page > v.MaxPage() {
		return fail(ReasonSlotInvalid), nil
	}
	if item.Slot < 0 || item.Slot >= v.SlotsInPage(item.Page) {
		return fail(ReasonSlotInvalid), nil
	}

	item.Owner = ""
	if w.Independent() {
		item.Owner = actor
	}

	if err := c.caches.Items.Put(item); err != nil {
		return fail(ReasonNotFound), err
	}

	c.bus.Publish(event.Event{
		Type: event.TypeItemSet, Actor: actor,
		WorkspaceID: w.ID, VaultID: item.VaultID, Page: item.Page, Slot: item.Slot,
	})
	// Independent views are per-actor copies; only shared vaults fan
	// slot changes out to other viewers.
	if c.views != nil && !w.Independent() {
		c.views.ItemSet(item.VaultID, item.Page, item.Slot, item)
	}
	return ok(), nil
}

// RemoveItem clears a vault slot on behalf of actor.
func (c *Core) RemoveItem(actor string, vaultID, page, slot int) (Result, error) {
	v, w, res, err := c.vaultWithWorkspace(vaultID)
	if !res.OK {
		return res, err
	}
	if page < 1 || page > v.MaxPage() || slot < 0 || slot >= v.SlotsInPage(page) {
		return fail(ReasonSlotInvalid), nil
	}

	owner := ""
	if w.Independent() {
		owner = actor
	}
	if err := c.caches.Items.Remove(vaultID, page, slot, owner); err != nil {
		return fail(ReasonNotFound), err
	}

	c.bus.Publish(event.Event{
		Type: event.TypeItemRemoved, Actor: actor,
		WorkspaceID: w.ID, VaultID: vaultID, Page: page, Slot: slot,
	})
	if c.views != nil && !w.Independent() {
		c.views.ItemRemoved(vaultID, page, slot)
	}
	return ok(), nil
}

// PageItems returns the actor's view of one vault page.
func (c *Core) PageItems(actor string, vaultID, page int) ([]model.Item, error) {
	_, w, res, err := c.vaultWithWorkspace(vaultID)
	if !res.OK {
		if err == nil {
			err = db.ErrNotFound
		}
		return nil, err
	}
	owner := ""
	if w.Independent() {
		owner = actor
	}
	return c.caches.Items.GetPage(vaultID, page, owner)
}

// SearchItems returns the actor's whole-vault view filtered by params.
func (c *Core) SearchItems(actor string, vaultID int, params viewsync.FilterParams) ([]model.Item, error) {
	_, w, res, err := c.vaultWithWorkspace(vaultID)
	if !res.OK {
		if err == nil {
			err = db.ErrNotFound
		}
		return nil, err
	}
	owner := ""
	if w.Independent() {
		owner = actor
	}
	items, err := c.caches.Items.GetAll(vaultID, owner)
	if err != nil {
		return nil, err
	}
	return params.Apply(items), nil
}
