// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

import (
	"errors"

	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/logging"
	"github.com/stratavault/strata/internal/model"
)

// CreateVault validates and creates a vault of the given size inside
// the workspace, charging the slots against the owner's capacity quota.
func (c *Core) CreateVault(workspaceID int, name, description string, size int) (Result, *model.Vault, error) {
	if size <= 0 {
		return fail(ReasonSizeInvalid), nil, nil
	}
	if res := c.names.Check(name); !res.OK {
		return res, nil, nil
	}
	w, err := c.caches.Workspaces.Get(workspaceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil, nil
		}
		return fail(ReasonNotFound), nil, err
	}

	siblings, err := c.caches.Vaults.GetByWorkspace(workspaceID)
	if err != nil {
		return fail(ReasonNotFound), nil, err
	}
	for _, v := range siblings {
		if v.Name == name {
			return fail(ReasonAlreadyExists), nil, nil
		}
	}

	if res, err := c.casSizeUsed(w.Owner, size); !res.OK {
		return res, nil, err
	}

	v := model.Vault{Name: name, Description: description, WorkspaceID: workspaceID, Size: size}
	id, err := c.store.InsertVault(v)
	if err != nil {
		if res, undoErr := c.casSizeUsed(w.Owner, -size); undoErr != nil || !res.OK {
			logging.Warnf("strata: size counter undo for %s failed: %v", w.Owner, undoErr)
		}
		if errors.Is(err, db.ErrDuplicate) {
			return fail(ReasonAlreadyExists), nil, nil
		}
		return fail(ReasonNotFound), nil, err
	}
	v.ID = id

	c.caches.Vaults.InvalidateWorkspace(workspaceID)
	c.bus.Publish(event.Event{Type: event.TypeVaultCreated, Actor: w.Owner, WorkspaceID: workspaceID, VaultID: id})
	return ok(), &v, nil
}

// AddVaultSize grows the vault by slots, charging the owner's quota via
// CAS first. Open views are refreshed since the page layout changes.
func (c *Core) AddVaultSize(vaultID, slots int) (Result, error) {
	if slots <= 0 {
		return fail(ReasonSizeInvalid), nil
	}
	v, w, res, err := c.vaultWithWorkspace(vaultID)
	if !res.OK {
		return res, err
	}

	if res, err := c.casSizeUsed(w.Owner, slots); !res.OK {
		return res, err
	}
	if err := c.store.UpdateVaultSize(vaultID, v.Size+slots); err != nil {
		if res, undoErr := c.casSizeUsed(w.Owner, -slots); undoErr != nil || !res.OK {
			logging.Warnf("strata: size counter undo for %s failed: %v", w.Owner, undoErr)
		}
		return fail(ReasonNotFound), err
	}

	c.caches.Vaults.Invalidate(vaultID, v.WorkspaceID)
	c.bus.Publish(event.Event{Type: event.TypeVaultResized, WorkspaceID: v.WorkspaceID, VaultID: vaultID})
	return ok(), nil
}

// RemoveVaultSize shrinks the vault by slots and refunds the quota.
// Slots that still hold items cannot be cut off.
func (c *Core) RemoveVaultSize(vaultID, slots int) (Result, error) {
	if slots <= 0 {
		return fail(ReasonSizeInvalid), nil
	}
	v, w, res, err := c.vaultWithWorkspace(vaultID)
	if !res.OK {
		return res, err
	}
	newSize := v.Size - slots
	if newSize < 0 {
		return fail(ReasonSizeInvalid), nil
	}

	// Check every owner scope: independent vault content lives in
	// per-actor rows that must not be stranded either.
	items, err := c.store.GetItems(vaultID, "")
	if err != nil {
		return fail(ReasonNotFound), err
	}
	for _, it := range items {
		if (it.Page-1)*model.PageSize+it.Slot >= newSize {
			return fail(ReasonSizeInUse), nil
		}
	}

	if res, err := c.casSizeUsed(w.Owner, -slots); !res.OK {
		return res, err
	}
	if err := c.store.UpdateVaultSize(vaultID, newSize); err != nil {
		if res, undoErr := c.casSizeUsed(w.Owner, slots); undoErr != nil || !res.OK {
			logging.Warnf("strata: size counter undo for %s failed: %v", w.Owner, undoErr)
		}
		return fail(ReasonNotFound), err
	}

	c.caches.Vaults.Invalidate(vaultID, v.WorkspaceID)
	c.bus.Publish(event.Event{Type: event.TypeVaultResized, WorkspaceID: v.WorkspaceID, VaultID: vaultID})
	return ok(), nil
}

// DeleteVault removes the vault with its items, settings and rules,
// then refunds the owner's capacity counter. Each delete is an
// independent statement; there is no cross-row transaction.
func (c *Core) DeleteVault(vaultID int) (Result, error) {
	v, w, res, err := c.vaultWithWorkspace(vaultID)
	if !res.OK {
		return res, err
	}

	if err := c.store.DeleteItemsByVault(vaultID); err != nil {
		return fail(ReasonNotFound), err
	}
	if err := c.store.DeleteSettingsByVault(vaultID); err != nil {
		return fail(ReasonNotFound), err
	}
	if err := c.store.DeletePickupRulesByVault(vaultID); err != nil {
		return fail(ReasonNotFound), err
	}
	if err := c.store.DeleteVault(vaultID); err != nil {
		return fail(ReasonNotFound), err
	}

	if res, err := c.casSizeUsed(w.Owner, -v.Size); err != nil || !res.OK {
		logging.Warnf("strata: size counter refund for %s failed: %+v %v", w.Owner, res, err)
	}

	c.caches.Items.InvalidateVault(vaultID)
	c.caches.Settings.InvalidateVault(vaultID)
	c.caches.Rules.Invalidate(vaultID)
	c.caches.Vaults.Invalidate(vaultID, v.WorkspaceID)
	c.bus.Publish(event.Event{Type: event.TypeVaultDeleted, Actor: w.Owner, WorkspaceID: v.WorkspaceID, VaultID: vaultID})
	return ok(), nil
}

// RenameVault validates and applies a new name.
func (c *Core) RenameVault(vaultID int, name string) (Result, error) {
	if res := c.names.Check(name); !res.OK {
		return res, nil
	}
	v, err := c.caches.Vaults.Get(vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil
		}
		return fail(ReasonNotFound), err
	}
	siblings, err := c.caches.Vaults.GetByWorkspace(v.WorkspaceID)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	for _, sib := range siblings {
		if sib.ID != vaultID && sib.Name == name {
			return fail(ReasonAlreadyExists), nil
		}
	}
	if err := c.store.UpdateVaultName(vaultID, name); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return fail(ReasonAlreadyExists), nil
		}
		return fail(ReasonNotFound), err
	}
	c.caches.Vaults.Invalidate(vaultID, v.WorkspaceID)
	return ok(), nil
}

// SetVaultDescription applies a new description.
func (c *Core) SetVaultDescription(vaultID int, description string) (Result, error) {
	v, err := c.caches.Vaults.Get(vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil
		}
		return fail(ReasonNotFound), err
	}
	if err := c.store.UpdateVaultDescription(vaultID, description); err != nil {
		return fail(ReasonNotFound), err
	}
	c.caches.Vaults.Invalidate(vaultID, v.WorkspaceID)
	return ok(), nil
}

// vaultWithWorkspace resolves a vault and its owning workspace.
// Dangling vaults (workspace deleted underneath) surface as errors, not
// reason codes: that is a consistency defect, not a business outcome.
func (c *Core) vaultWithWorkspace(vaultID int) (*model.Vault, *model.Workspace, Result, error) {
	v, err := c.caches.Vaults.Get(vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, fail(ReasonNotFound), nil
		}
		return nil, nil, fail(ReasonNotFound), err
	}
	w, err := c.caches.Workspaces.Get(v.WorkspaceID)
	if err != nil {
		return nil, nil, fail(ReasonNotFound), err
	}
	return v, w, ok(), nil
}
