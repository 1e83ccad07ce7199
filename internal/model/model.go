// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the core domain entities for Strata: quotas,
// workspaces, vaults, item slots, per-vault settings and pickup rules.
// These are plain structs; persistence mapping lives in internal/db.
package model

import (
	"fmt"
	"time"
)

// PageSize is the fixed number of content slots per vault page.
const PageSize = 36

// Quota holds per-account limits and usage counters. Used counters are
// mutated only through the conditional-update path in internal/db; the
// invariant used <= limit holds unless Unlimited is set.
type Quota struct {
	ID             int
	Account        string
	WorkspaceLimit int
	WorkspaceUsed  int
	SizeLimit      int
	SizeUsed       int
	Unlimited      bool
}

// HasWorkspaceHeadroom reports whether one more workspace fits the limit.
func (q Quota) HasWorkspaceHeadroom() bool {
	return q.Unlimited || q.WorkspaceUsed+1 <= q.WorkspaceLimit
}

// HasSizeHeadroom reports whether add more slots fit the size limit.
func (q Quota) HasSizeHeadroom(add int) bool {
	return q.Unlimited || q.SizeUsed+add <= q.SizeLimit
}

// WorkspaceType classifies how a workspace's vault content is shared.
type WorkspaceType string

const (
	// WorkspacePublic is a shared workspace anyone can be invited to.
	WorkspacePublic WorkspaceType = "PUBLIC"
	// WorkspacePrivate is a shared workspace visible to members only.
	WorkspacePrivate WorkspaceType = "PRIVATE"
	// WorkspaceIndependent gives every actor an independent copy of each
	// vault's content. Independent vault views are never synchronized
	// across actors.
	WorkspaceIndependent WorkspaceType = "INDEPENDENT"
)

// Valid reports whether t is one of the known workspace types.
func (t WorkspaceType) Valid() bool {
	switch t {
	case WorkspacePublic, WorkspacePrivate, WorkspaceIndependent:
		return true
	}
	return false
}

// Workspace is a named group of vaults with an owner and a member set.
type Workspace struct {
	ID          int
	Name        string
	Description string
	Type        WorkspaceType
	Owner       string
	Members     MemberSet
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsMember reports whether the actor belongs to the workspace. The owner
// is always a member, listed or not.
func (w Workspace) IsMember(actor string) bool {
	return actor == w.Owner || w.Members.Has(actor)
}

// Independent reports whether per-actor content isolation applies.
func (w Workspace) Independent() bool {
	return w.Type == WorkspaceIndependent
}

// Vault is a sized, paged storage unit belonging to a workspace. Size is
// counted in slots and contributes exactly its value to the owning
// account's SizeUsed.
type Vault struct {
	ID          int
	Name        string
	Description string
	WorkspaceID int
	Size        int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaxPage returns the number of pages the vault's size spans, at least 1.
func (v Vault) MaxPage() int {
	pages := (v.Size + PageSize - 1) / PageSize
	if pages == 0 {
		return 1
	}
	return pages
}

// SlotsInPage returns the number of usable slots on the given 1-based page.
func (v Vault) SlotsInPage(page int) int {
	slots := v.Size - (page-1)*PageSize
	if slots < 0 {
		return 0
	}
	if slots > PageSize {
		return PageSize
	}
	return slots
}

// Item is a stored object occupying one slot of a vault page. Owner is
// empty unless the owning workspace is independent. Name, Kind and Labels
// are denormalized from the payload so rule matching and search never
// need to decode it.
type Item struct {
	ID      int
	VaultID int
	Page    int
	Slot    int
	Owner   string
	Name    string
	Kind    string
	Labels  []string
	Payload string
}

// Setting is a per-vault, per-actor key/value pair.
type Setting struct {
	ID        int
	VaultID   int
	Key       string
	Owner     string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RuleKind separates pickup allow rules from deny rules.
type RuleKind string

const (
	RuleAllow RuleKind = "ALLOW"
	RuleDeny  RuleKind = "DENY"
)

// PickupRule is an ordered match expression attached to a vault. Deny
// rules veto before any allow rule is consulted.
type PickupRule struct {
	ID        int
	VaultID   int
	Kind      RuleKind
	Match     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r PickupRule) String() string {
	return fmt.Sprintf("%s %q (vault %d)", r.Kind, r.Match, r.VaultID)
}

// BackupData is the container for a whole-dataset export.
type BackupData struct {
	SchemaVersion int `json:"schema_version"`

	// BackupID uniquely identifies one export so restores can be traced
	// in the logs.
	BackupID   string    `json:"backup_id"`
	ExportedAt time.Time `json:"exported_at"`

	Quotas        []Quota      `json:"quotas"`
	Workspaces    []Workspace  `json:"workspaces"`
	Vaults        []Vault      `json:"vaults"`
	Items         []Item       `json:"items"`
	Settings      []Setting    `json:"settings"`
	PickupRules   []PickupRule `json:"pickup_rules"`
}
