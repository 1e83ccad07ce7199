// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package event carries in-process notifications between the domain
// layer and the services that react to storage changes (view
// synchronization, pickup candidate invalidation, cache lifecycle).
package event

import "time"

// Type identifies the kind of an event.
type Type string

// Actor lifecycle events.
const (
	// TypeActorConnected records an actor connecting to the service.
	TypeActorConnected Type = "actor.connected"
	// TypeActorDisconnected records an actor disconnecting.
	TypeActorDisconnected Type = "actor.disconnected"
)

// Workspace events.
const (
	// TypeWorkspaceCreated records the creation of a workspace.
	TypeWorkspaceCreated Type = "workspace.created"
	// TypeWorkspaceDeleted records the deletion of a workspace.
	TypeWorkspaceDeleted Type = "workspace.deleted"
	// TypeWorkspaceUpdated records updates to workspace metadata or members.
	TypeWorkspaceUpdated Type = "workspace.updated"
)

// Vault events.
const (
	// TypeVaultCreated records the creation of a vault.
	TypeVaultCreated Type = "vault.created"
	// TypeVaultDeleted records the deletion of a vault.
	TypeVaultDeleted Type = "vault.deleted"
	// TypeVaultResized records a vault size change.
	TypeVaultResized Type = "vault.resized"
	// TypeVaultOpened records an actor opening a vault page view.
	TypeVaultOpened Type = "vault.opened"
	// TypeVaultClosed records an actor closing a vault view.
	TypeVaultClosed Type = "vault.closed"
)

// Item events.
const (
	// TypeItemSet records an item being placed into a slot.
	TypeItemSet Type = "item.set"
	// TypeItemRemoved records a slot being cleared.
	TypeItemRemoved Type = "item.removed"
)

// Search view events.
const (
	// TypeSearchOpened records an actor opening a filtered view.
	TypeSearchOpened Type = "search.opened"
	// TypeSearchClosed records an actor closing a filtered view.
	TypeSearchClosed Type = "search.closed"
)

// Rule events.
const (
	// TypeRuleChanged records any pickup rule mutation on a vault.
	TypeRuleChanged Type = "rule.changed"
)

// Event is a single notification. Fields beyond Type are filled as the
// event kind requires; zero values mean not applicable.
type Event struct {
	// Type identifies the kind of event.
	Type Type
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Actor is the actor that triggered the event, if any.
	Actor string
	// WorkspaceID is the workspace affected, if any.
	WorkspaceID int
	// VaultID is the vault affected, if any.
	VaultID int
	// Page is the 1-based vault page, for view and item events.
	Page int
	// Slot is the 0-based slot within the page, for item events.
	Slot int
}
