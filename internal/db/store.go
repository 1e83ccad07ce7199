// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/stratavault/strata/internal/model"
)

// Store defines the interface for all persistent-store operations in
// Strata. This allows for multiple database backends to be implemented.
// The store assumes single-statement atomicity only; the conditional
// counter updates (CAS*) are the sole operations that depend on it.
type Store interface {
	// Quota methods. CAS updates return false without error when the
	// stored counter no longer matches old (a concurrent mutation won).
	GetQuota(account string) (*model.Quota, error)
	InsertQuota(q model.Quota) (int, error)
	SetQuotaWorkspaceLimit(account string, limit int) error
	SetQuotaSizeLimit(account string, limit int) error
	SetQuotaUnlimited(account string, unlimited bool) error
	SetQuotaLimits(account string, workspaceLimit, sizeLimit int, unlimited bool) error
	CASQuotaWorkspaceUsed(account string, old, new int) (bool, error)
	CASQuotaSizeUsed(account string, old, new int) (bool, error)

	// Workspace methods
	GetWorkspace(id int) (*model.Workspace, error)
	FindWorkspace(actor, name string) (*model.Workspace, error)
	GetWorkspacesForActor(actor string) ([]model.Workspace, error)
	GetIndependentWorkspace() (*model.Workspace, error)
	EnsureIndependentWorkspace() error
	InsertWorkspace(w model.Workspace) (int, error)
	UpdateWorkspaceName(id int, name string) error
	UpdateWorkspaceDescription(id int, desc string) error
	UpdateWorkspaceMembers(id int, members model.MemberSet) error
	DeleteWorkspace(id int) error

	// Vault methods
	GetVault(id int) (*model.Vault, error)
	GetVaultsByWorkspace(workspaceID int) ([]model.Vault, error)
	InsertVault(v model.Vault) (int, error)
	UpdateVaultName(id int, name string) error
	UpdateVaultDescription(id int, desc string) error
	UpdateVaultSize(id, size int) error
	DeleteVault(id int) error

	// Item methods. An empty owner selects the shared (non-independent)
	// rows; a non-empty owner selects that actor's independent rows.
	GetItems(vaultID int, owner string) ([]model.Item, error)
	GetPageItems(vaultID, page int, owner string) ([]model.Item, error)
	ReplaceItem(item model.Item) error
	DeleteItem(vaultID, page, slot int, owner string) error
	DeleteItemsByVault(vaultID int) error

	// Setting methods
	GetSetting(vaultID int, key, owner string) (*model.Setting, error)
	UpsertSetting(vaultID int, key, owner, value string) error
	DeleteSetting(vaultID int, key, owner string) error
	DeleteSettingsByVault(vaultID int) error

	// Pickup rule methods
	GetPickupRules(vaultID int) ([]model.PickupRule, error)
	GetPickupRulesByVaults(vaultIDs []int) (map[int][]model.PickupRule, error)
	InsertPickupRule(r model.PickupRule) (int, error)
	UpdatePickupRuleMatch(id int, match string) error
	DeletePickupRule(id int) error
	DeletePickupRulesByVault(vaultID int) error

	// Backup methods
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
}
