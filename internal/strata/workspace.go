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

// CreateWorkspace validates and creates a workspace for the owner,
// charging one workspace against the owner's quota via CAS. A lost
// counter race surfaces as ReasonConflict without side effects.
func (c *Core) CreateWorkspace(owner, name, description string, typ model.WorkspaceType) (Result, *model.Workspace, error) {
	if !typ.Valid() || typ == model.WorkspaceIndependent {
		// The single independent workspace is bootstrapped, never
		// created by actors.
		return fail(ReasonTypeInvalid), nil, nil
	}
	if res := c.names.Check(name); !res.OK {
		return res, nil, nil
	}
	if _, err := c.store.FindWorkspace(owner, name); err == nil {
		return fail(ReasonAlreadyExists), nil, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return fail(ReasonNotFound), nil, err
	}

	if res, err := c.casWorkspaceUsed(owner, +1); !res.OK {
		return res, nil, err
	}

	w := model.Workspace{
		Name:        name,
		Description: description,
		Type:        typ,
		Owner:       owner,
		Members:     model.NewMemberSet(),
	}
	id, err := c.store.InsertWorkspace(w)
	if err != nil {
		// Undo the counter charge; best effort, a lost undo race just
		// leaves the counter to be corrected by the next CAS reader.
		if res, undoErr := c.casWorkspaceUsed(owner, -1); undoErr != nil || !res.OK {
			logging.Warnf("strata: workspace counter undo for %s failed: %v", owner, undoErr)
		}
		if errors.Is(err, db.ErrDuplicate) {
			return fail(ReasonAlreadyExists), nil, nil
		}
		return fail(ReasonNotFound), nil, err
	}
	w.ID = id

	c.caches.Workspaces.InvalidateActor(owner)
	c.bus.Publish(event.Event{Type: event.TypeWorkspaceCreated, Actor: owner, WorkspaceID: id})
	return ok(), &w, nil
}

// DeleteWorkspace removes the workspace and all of its vaults, then
// refunds the owner's workspace counter. The cascading deletes run as
// independent statements; a failure partway leaves remaining rows for a
// later retry rather than rolling anything back.
func (c *Core) DeleteWorkspace(id int) (Result, error) {
	w, err := c.caches.Workspaces.Get(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil
		}
		return fail(ReasonNotFound), err
	}
	if w.Independent() {
		return fail(ReasonTypeInvalid), nil
	}

	vaults, err := c.caches.Vaults.GetByWorkspace(id)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	for _, v := range vaults {
		if res, err := c.DeleteVault(v.ID); err != nil {
			return res, err
		} else if !res.OK {
			return res, nil
		}
	}

	if err := c.store.DeleteWorkspace(id); err != nil {
		return fail(ReasonNotFound), err
	}
	if res, err := c.casWorkspaceUsed(w.Owner, -1); err != nil || !res.OK {
		// The workspace row is already gone; the counter refund lost a
		// race and will be off until corrected administratively.
		logging.Warnf("strata: workspace counter refund for %s failed: %+v %v", w.Owner, res, err)
	}

	c.caches.Workspaces.Invalidate(id)
	c.caches.Vaults.InvalidateWorkspace(id)
	c.bus.Publish(event.Event{Type: event.TypeWorkspaceDeleted, Actor: w.Owner, WorkspaceID: id})
	return ok(), nil
}

// RenameWorkspace validates and applies a new name.
func (c *Core) RenameWorkspace(id int, name string) (Result, error) {
	if res := c.names.Check(name); !res.OK {
		return res, nil
	}
	w, err := c.caches.Workspaces.Get(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil
		}
		return fail(ReasonNotFound), err
	}
	if existing, err := c.store.FindWorkspace(w.Owner, name); err == nil && existing.ID != id {
		return fail(ReasonAlreadyExists), nil
	}
	if err := c.store.UpdateWorkspaceName(id, name); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return fail(ReasonAlreadyExists), nil
		}
		return fail(ReasonNotFound), err
	}
	c.caches.Workspaces.Invalidate(id)
	c.bus.Publish(event.Event{Type: event.TypeWorkspaceUpdated, WorkspaceID: id})
	return ok(), nil
}

// SetWorkspaceDescription applies a new description.
func (c *Core) SetWorkspaceDescription(id int, description string) (Result, error) {
	if err := c.store.UpdateWorkspaceDescription(id, description); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil
		}
		return fail(ReasonNotFound), err
	}
	c.caches.Workspaces.Invalidate(id)
	c.bus.Publish(event.Event{Type: event.TypeWorkspaceUpdated, WorkspaceID: id})
	return ok(), nil
}

// AddWorkspaceMember adds an actor to the member set.
func (c *Core) AddWorkspaceMember(id int, actor string) (Result, error) {
	w, err := c.caches.Workspaces.Get(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil
		}
		return fail(ReasonNotFound), err
	}
	members := w.Members.Clone()
	if !members.Add(actor) {
		return fail(ReasonAlreadyExists), nil
	}
	if err := c.store.UpdateWorkspaceMembers(id, members); err != nil {
		return fail(ReasonNotFound), err
	}
	c.caches.Workspaces.Invalidate(id)
	c.caches.Workspaces.InvalidateActor(actor)
	c.bus.Publish(event.Event{Type: event.TypeWorkspaceUpdated, Actor: actor, WorkspaceID: id})
	return ok(), nil
}

// RemoveWorkspaceMember removes an actor from the member set.
func (c *Core) RemoveWorkspaceMember(id int, actor string) (Result, error) {
	w, err := c.caches.Workspaces.Get(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil
		}
		return fail(ReasonNotFound), err
	}
	members := w.Members.Clone()
	if !members.Has(actor) {
		return fail(ReasonNotFound), nil
	}
	members.Remove(actor)
	if err := c.store.UpdateWorkspaceMembers(id, members); err != nil {
		return fail(ReasonNotFound), err
	}
	c.caches.Workspaces.Invalidate(id)
	c.caches.Workspaces.InvalidateActor(actor)
	c.bus.Publish(event.Event{Type: event.TypeWorkspaceUpdated, Actor: actor, WorkspaceID: id})
	return ok(), nil
}

// WorkspacesFor lists the workspaces an actor owns or belongs to.
func (c *Core) WorkspacesFor(actor string) ([]model.Workspace, error) {
	return c.caches.Workspaces.GetForActor(actor)
}
