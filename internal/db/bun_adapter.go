// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/stratavault/strata/internal/model"
)

// Row models. Timestamps are persisted as epoch milliseconds so the same
// schema works across SQLite, Postgres and MySQL without dialect-specific
// time handling.

type quotaRow struct {
	bun.BaseModel `bun:"table:quotas"`

	ID             int    `bun:"id,pk,autoincrement"`
	Account        string `bun:"account"`
	WorkspaceLimit int    `bun:"workspace_limit"`
	WorkspaceUsed  int    `bun:"workspace_used"`
	SizeLimit      int    `bun:"size_limit"`
	SizeUsed       int    `bun:"size_used"`
	Unlimited      bool   `bun:"unlimited"`
}

type workspaceRow struct {
	bun.BaseModel `bun:"table:workspaces"`

	ID          int    `bun:"id,pk,autoincrement"`
	Name        string `bun:"name"`
	Description string `bun:"description"`
	Type        string `bun:"type"`
	Owner       string `bun:"owner"`
	Members     string `bun:"members"`
	CreatedAt   int64  `bun:"created_at"`
	UpdatedAt   int64  `bun:"updated_at"`
}

type vaultRow struct {
	bun.BaseModel `bun:"table:vaults"`

	ID          int    `bun:"id,pk,autoincrement"`
	Name        string `bun:"name"`
	Description string `bun:"description"`
	WorkspaceID int    `bun:"workspace_id"`
	Size        int    `bun:"size"`
	CreatedAt   int64  `bun:"created_at"`
	UpdatedAt   int64  `bun:"updated_at"`
}

type itemRow struct {
	bun.BaseModel `bun:"table:items"`

	ID      int    `bun:"id,pk,autoincrement"`
	VaultID int    `bun:"vault_id"`
	Page    int    `bun:"page"`
	Slot    int    `bun:"slot"`
	Owner   string `bun:"owner"`
	Name    string `bun:"name"`
	Kind    string `bun:"kind"`
	Labels  string `bun:"labels"`
	Payload string `bun:"payload"`
}

type settingRow struct {
	bun.BaseModel `bun:"table:settings"`

	ID        int    `bun:"id,pk,autoincrement"`
	VaultID   int    `bun:"vault_id"`
	Setting   string `bun:"setting"`
	Owner     string `bun:"owner"`
	Value     string `bun:"value"`
	CreatedAt int64  `bun:"created_at"`
	UpdatedAt int64  `bun:"updated_at"`
}

type pickupRuleRow struct {
	bun.BaseModel `bun:"table:pickup_rules"`

	ID        int    `bun:"id,pk,autoincrement"`
	VaultID   int    `bun:"vault_id"`
	Kind      string `bun:"kind"`
	Match     string `bun:"pattern"`
	CreatedAt int64  `bun:"created_at"`
	UpdatedAt int64  `bun:"updated_at"`
}

func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func quotaFromRow(r quotaRow) model.Quota {
	return model.Quota{
		ID:             r.ID,
		Account:        r.Account,
		WorkspaceLimit: r.WorkspaceLimit,
		WorkspaceUsed:  r.WorkspaceUsed,
		SizeLimit:      r.SizeLimit,
		SizeUsed:       r.SizeUsed,
		Unlimited:      r.Unlimited,
	}
}

func quotaToRow(q model.Quota) quotaRow {
	return quotaRow{
		ID:             q.ID,
		Account:        q.Account,
		WorkspaceLimit: q.WorkspaceLimit,
		WorkspaceUsed:  q.WorkspaceUsed,
		SizeLimit:      q.SizeLimit,
		SizeUsed:       q.SizeUsed,
		Unlimited:      q.Unlimited,
	}
}

func workspaceFromRow(r workspaceRow) model.Workspace {
	return model.Workspace{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        model.WorkspaceType(r.Type),
		Owner:       r.Owner,
		Members:     model.ParseMemberSet(r.Members),
		CreatedAt:   millisToTime(r.CreatedAt),
		UpdatedAt:   millisToTime(r.UpdatedAt),
	}
}

func workspaceToRow(w model.Workspace) workspaceRow {
	return workspaceRow{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Type:        string(w.Type),
		Owner:       w.Owner,
		Members:     w.Members.String(),
		CreatedAt:   timeToMillis(w.CreatedAt),
		UpdatedAt:   timeToMillis(w.UpdatedAt),
	}
}

func vaultFromRow(r vaultRow) model.Vault {
	return model.Vault{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		WorkspaceID: r.WorkspaceID,
		Size:        r.Size,
		CreatedAt:   millisToTime(r.CreatedAt),
		UpdatedAt:   millisToTime(r.UpdatedAt),
	}
}

func vaultToRow(v model.Vault) vaultRow {
	return vaultRow{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		WorkspaceID: v.WorkspaceID,
		Size:        v.Size,
		CreatedAt:   timeToMillis(v.CreatedAt),
		UpdatedAt:   timeToMillis(v.UpdatedAt),
	}
}

func itemFromRow(r itemRow) model.Item {
	var labels []string
	if r.Labels != "" {
		// Labels were written by itemToRow as a JSON array; a decode
		// failure means a hand-edited row, which we treat as label-free.
		_ = json.Unmarshal([]byte(r.Labels), &labels)
	}
	return model.Item{
		ID:      r.ID,
		VaultID: r.VaultID,
		Page:    r.Page,
		Slot:    r.Slot,
		Owner:   r.Owner,
		Name:    r.Name,
		Kind:    r.Kind,
		Labels:  labels,
		Payload: r.Payload,
	}
}

func itemToRow(it model.Item) itemRow {
	labels := ""
	if len(it.Labels) > 0 {
		if b, err := json.Marshal(it.Labels); err == nil {
			labels = string(b)
		}
	}
	return itemRow{
		ID:      it.ID,
		VaultID: it.VaultID,
		Page:    it.Page,
		Slot:    it.Slot,
		Owner:   it.Owner,
		Name:    it.Name,
		Kind:    it.Kind,
		Labels:  labels,
		Payload: it.Payload,
	}
}

func settingFromRow(r settingRow) model.Setting {
	return model.Setting{
		ID:        r.ID,
		VaultID:   r.VaultID,
		Key:       r.Setting,
		Owner:     r.Owner,
		Value:     r.Value,
		CreatedAt: millisToTime(r.CreatedAt),
		UpdatedAt: millisToTime(r.UpdatedAt),
	}
}

func settingToRow(s model.Setting) settingRow {
	return settingRow{
		ID:        s.ID,
		VaultID:   s.VaultID,
		Setting:   s.Key,
		Owner:     s.Owner,
		Value:     s.Value,
		CreatedAt: timeToMillis(s.CreatedAt),
		UpdatedAt: timeToMillis(s.UpdatedAt),
	}
}

func pickupRuleFromRow(r pickupRuleRow) model.PickupRule {
	return model.PickupRule{
		ID:        r.ID,
		VaultID:   r.VaultID,
		Kind:      model.RuleKind(r.Kind),
		Match:     r.Match,
		CreatedAt: millisToTime(r.CreatedAt),
		UpdatedAt: millisToTime(r.UpdatedAt),
	}
}

func pickupRuleToRow(r model.PickupRule) pickupRuleRow {
	return pickupRuleRow{
		ID:        r.ID,
		VaultID:   r.VaultID,
		Kind:      string(r.Kind),
		Match:     r.Match,
		CreatedAt: timeToMillis(r.CreatedAt),
		UpdatedAt: timeToMillis(r.UpdatedAt),
	}
}

// bunStore implements Store on top of a *bun.DB. All three dialect store
// types embed it; dialect differences are handled by Bun itself.
type bunStore struct {
	bun *bun.DB
}

func (s *bunStore) ctx() context.Context {
	return context.Background()
}

// --- Quota methods ---

func (s *bunStore) GetQuota(account string) (*model.Quota, error) {
	var row quotaRow
	err := s.bun.NewSelect().Model(&row).Where("account = ?", account).Limit(1).Scan(s.ctx())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, MapDBError(err)
	}
	q := quotaFromRow(row)
	return &q, nil
}

func (s *bunStore) InsertQuota(q model.Quota) (int, error) {
	row := quotaToRow(q)
	row.ID = 0
	if _, err := s.bun.NewInsert().Model(&row).Exec(s.ctx()); err != nil {
		return 0, MapDBError(err)
	}
	return row.ID, nil
}

func (s *bunStore) SetQuotaWorkspaceLimit(account string, limit int) error {
	return s.updateQuota(account, map[string]any{"workspace_limit": limit})
}

func (s *bunStore) SetQuotaSizeLimit(account string, limit int) error {
	return s.updateQuota(account, map[string]any{"size_limit": limit})
}

func (s *bunStore) SetQuotaUnlimited(account string, unlimited bool) error {
	return s.updateQuota(account, map[string]any{"unlimited": unlimited})
}

func (s *bunStore) SetQuotaLimits(account string, workspaceLimit, sizeLimit int, unlimited bool) error {
	return s.updateQuota(account, map[string]any{
		"workspace_limit": workspaceLimit,
		"size_limit":      sizeLimit,
		"unlimited":       unlimited,
	})
}

func (s *bunStore) updateQuota(account string, cols map[string]any) error {
	q := s.bun.NewUpdate().Model((*quotaRow)(nil)).Where("account = ?", account)
	for col, val := range cols {
		q = q.Set("?0 = ?1", bun.Ident(col), val)
	}
	res, err := q.Exec(s.ctx())
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *bunStore) CASQuotaWorkspaceUsed(account string, old, new int) (bool, error) {
	return s.casQuotaCounter("workspace_used", account, old, new)
}

func (s *bunStore) CASQuotaSizeUsed(account string, old, new int) (bool, error) {
	return s.casQuotaCounter("size_used", account, old, new)
}

// casQuotaCounter updates a usage counter only if it still holds old.
// A false return means a concurrent mutation won; callers reload and retry.
func (s *bunStore) casQuotaCounter(col, account string, old, new int) (bool, error) {
	res, err := s.bun.NewUpdate().
		Model((*quotaRow)(nil)).
		Set("?0 = ?1", bun.Ident(col), new).
		Where("account = ?", account).
		Where("?0 = ?1", bun.Ident(col), old).
		Exec(s.ctx())
	if err != nil {
		return false, MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// --- Workspace methods ---

func (s *bunStore) GetWorkspace(id int) (*model.Workspace, error) {
	var row workspaceRow
	err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(s.ctx())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, MapDBError(err)
	}
	w := workspaceFromRow(row)
	return &w, nil
}

func (s *bunStore) FindWorkspace(actor, name string) (*model.Workspace, error) {
	var row workspaceRow
	err := s.bun.NewSelect().Model(&row).
		Where("owner = ?", actor).
		Where("name = ?", name).
		Limit(1).
		Scan(s.ctx())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, MapDBError(err)
	}
	w := workspaceFromRow(row)
	return &w, nil
}

func (s *bunStore) GetWorkspacesForActor(actor string) ([]model.Workspace, error) {
	// Membership is stored as a comma-joined list, so filter in Go rather
	// than with a LIKE that could match substrings of other names.
	var rows []workspaceRow
	err := s.bun.NewSelect().Model(&rows).Order("id ASC").Scan(s.ctx())
	if err != nil {
		return nil, MapDBError(err)
	}
	var out []model.Workspace
	for _, r := range rows {
		w := workspaceFromRow(r)
		if w.IsMember(actor) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *bunStore) GetIndependentWorkspace() (*model.Workspace, error) {
	var row workspaceRow
	err := s.bun.NewSelect().Model(&row).
		Where("type = ?", string(model.WorkspaceIndependent)).
		Order("id ASC").
		Limit(1).
		Scan(s.ctx())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, MapDBError(err)
	}
	w := workspaceFromRow(row)
	return &w, nil
}

func (s *bunStore) EnsureIndependentWorkspace() error {
	_, err := s.GetIndependentWorkspace()
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err = s.InsertWorkspace(model.Workspace{
		Name:        "independent",
		Description: "per-actor isolated storage",
		Type:        model.WorkspaceIndependent,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	return err
}

func (s *bunStore) InsertWorkspace(w model.Workspace) (int, error) {
	row := workspaceToRow(w)
	row.ID = 0
	if row.CreatedAt == 0 {
		row.CreatedAt = nowMillis()
	}
	if row.UpdatedAt == 0 {
		row.UpdatedAt = row.CreatedAt
	}
	if _, err := s.bun.NewInsert().Model(&row).Exec(s.ctx()); err != nil {
		return 0, MapDBError(err)
	}
	return row.ID, nil
}

func (s *bunStore) UpdateWorkspaceName(id int, name string) error {
	return s.updateWorkspace(id, "name", name)
}

func (s *bunStore) UpdateWorkspaceDescription(id int, desc string) error {
	return s.updateWorkspace(id, "description", desc)
}

func (s *bunStore) UpdateWorkspaceMembers(id int, members model.MemberSet) error {
	return s.updateWorkspace(id, "members", members.String())
}

func (s *bunStore) updateWorkspace(id int, col string, val any) error {
	res, err := s.bun.NewUpdate().
		Model((*workspaceRow)(nil)).
		Set("?0 = ?1", bun.Ident(col), val).
		Set("updated_at = ?", nowMillis()).
		Where("id = ?", id).
		Exec(s.ctx())
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *bunStore) DeleteWorkspace(id int) error {
	_, err := s.bun.NewDelete().Model((*workspaceRow)(nil)).Where("id = ?", id).Exec(s.ctx())
	return MapDBError(err)
}

// --- Vault methods ---

func (s *bunStore) GetVault(id int) (*model.Vault, error) {
	var row vaultRow
	err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(s.ctx())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, MapDBError(err)
	}
	v := vaultFromRow(row)
	return &v, nil
}

func (s *bunStore) GetVaultsByWorkspace(workspaceID int) ([]model.Vault, error) {
	var rows []vaultRow
	err := s.bun.NewSelect().Model(&rows).
		Where("workspace_id = ?", workspaceID).
		Order("id ASC").
		Scan(s.ctx())
	if err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.Vault, 0, len(rows))
	for _, r := range rows {
		out = append(out, vaultFromRow(r))
	}
	return out, nil
}

func (s *bunStore) InsertVault(v model.Vault) (int, error) {
	row := vaultToRow(v)
	row.ID = 0
	if row.CreatedAt == 0 {
		row.CreatedAt = nowMillis()
	}
	if row.UpdatedAt == 0 {
		row.UpdatedAt = row.CreatedAt
	}
	if _, err := s.bun.NewInsert().Model(&row).Exec(s.ctx()); err != nil {
		return 0, MapDBError(err)
	}
	return row.ID, nil
}

func (s *bunStore) UpdateVaultName(id int, name string) error {
	return s.updateVault(id, "name", name)
}

func (s *bunStore) UpdateVaultDescription(id int, desc string) error {
	return s.updateVault(id, "description", desc)
}

func (s *bunStore) UpdateVaultSize(id, size int) error {
	return s.updateVault(id, "size", size)
}

func (s *bunStore) updateVault(id int, col string, val any) error {
	res, err := s.bun.NewUpdate().
		Model((*vaultRow)(nil)).
		Set("?0 = ?1", bun.Ident(col), val).
		Set("updated_at = ?", nowMillis()).
		Where("id = ?", id).
		Exec(s.ctx())
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *bunStore) DeleteVault(id int) error {
	_, err := s.bun.NewDelete().Model((*vaultRow)(nil)).Where("id = ?", id).Exec(s.ctx())
	return MapDBError(err)
}

// --- Item methods ---

func (s *bunStore) GetItems(vaultID int, owner string) ([]model.Item, error) {
	var rows []itemRow
	err := s.bun.NewSelect().Model(&rows).
		Where("vault_id = ?", vaultID).
		Where("owner = ?", owner).
		Order("page ASC", "slot ASC").
		Scan(s.ctx())
	if err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, itemFromRow(r))
	}
	return out, nil
}

func (s *bunStore) GetPageItems(vaultID, page int, owner string) ([]model.Item, error) {
	var rows []itemRow
	err := s.bun.NewSelect().Model(&rows).
		Where("vault_id = ?", vaultID).
		Where("page = ?", page).
		Where("owner = ?", owner).
		Order("slot ASC").
		Scan(s.ctx())
	if err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, itemFromRow(r))
	}
	return out, nil
}

// ReplaceItem removes whatever occupies the target slot and inserts the
// new row, in one transaction. There is no partial update of a slot.
func (s *bunStore) ReplaceItem(item model.Item) error {
	err := WithTx(s.ctx(), s.bun, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*itemRow)(nil)).
			Where("vault_id = ?", item.VaultID).
			Where("page = ?", item.Page).
			Where("slot = ?", item.Slot).
			Where("owner = ?", item.Owner).
			Exec(ctx); err != nil {
			return err
		}
		row := itemToRow(item)
		row.ID = 0
		_, err := tx.NewInsert().Model(&row).Exec(ctx)
		return err
	})
	return MapDBError(err)
}

func (s *bunStore) DeleteItem(vaultID, page, slot int, owner string) error {
	_, err := s.bun.NewDelete().Model((*itemRow)(nil)).
		Where("vault_id = ?", vaultID).
		Where("page = ?", page).
		Where("slot = ?", slot).
		Where("owner = ?", owner).
		Exec(s.ctx())
	return MapDBError(err)
}

func (s *bunStore) DeleteItemsByVault(vaultID int) error {
	_, err := s.bun.NewDelete().Model((*itemRow)(nil)).
		Where("vault_id = ?", vaultID).
		Exec(s.ctx())
	return MapDBError(err)
}

// --- Setting methods ---

func (s *bunStore) GetSetting(vaultID int, key, owner string) (*model.Setting, error) {
	var row settingRow
	err := s.bun.NewSelect().Model(&row).
		Where("vault_id = ?", vaultID).
		Where("setting = ?", key).
		Where("owner = ?", owner).
		Limit(1).
		Scan(s.ctx())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, MapDBError(err)
	}
	st := settingFromRow(row)
	return &st, nil
}

func (s *bunStore) UpsertSetting(vaultID int, key, owner, value string) error {
	err := WithTx(s.ctx(), s.bun, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*settingRow)(nil)).
			Set("value = ?", value).
			Set("updated_at = ?", nowMillis()).
			Where("vault_id = ?", vaultID).
			Where("setting = ?", key).
			Where("owner = ?", owner).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			return nil
		}
		row := settingToRow(model.Setting{
			VaultID:   vaultID,
			Key:       key,
			Owner:     owner,
			Value:     value,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		_, err = tx.NewInsert().Model(&row).Exec(ctx)
		return err
	})
	return MapDBError(err)
}

func (s *bunStore) DeleteSetting(vaultID int, key, owner string) error {
	_, err := s.bun.NewDelete().Model((*settingRow)(nil)).
		Where("vault_id = ?", vaultID).
		Where("setting = ?", key).
		Where("owner = ?", owner).
		Exec(s.ctx())
	return MapDBError(err)
}

func (s *bunStore) DeleteSettingsByVault(vaultID int) error {
	_, err := s.bun.NewDelete().Model((*settingRow)(nil)).
		Where("vault_id = ?", vaultID).
		Exec(s.ctx())
	return MapDBError(err)
}

// --- Pickup rule methods ---

func (s *bunStore) GetPickupRules(vaultID int) ([]model.PickupRule, error) {
	var rows []pickupRuleRow
	err := s.bun.NewSelect().Model(&rows).
		Where("vault_id = ?", vaultID).
		Order("id ASC").
		Scan(s.ctx())
	if err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.PickupRule, 0, len(rows))
	for _, r := range rows {
		out = append(out, pickupRuleFromRow(r))
	}
	return out, nil
}

func (s *bunStore) GetPickupRulesByVaults(vaultIDs []int) (map[int][]model.PickupRule, error) {
	out := make(map[int][]model.PickupRule, len(vaultIDs))
	if len(vaultIDs) == 0 {
		return out, nil
	}
	var rows []pickupRuleRow
	err := s.bun.NewSelect().Model(&rows).
		Where("vault_id IN (?)", bun.In(vaultIDs)).
		Order("vault_id ASC", "id ASC").
		Scan(s.ctx())
	if err != nil {
		return nil, MapDBError(err)
	}
	for _, r := range rows {
		out[r.VaultID] = append(out[r.VaultID], pickupRuleFromRow(r))
	}
	return out, nil
}

func (s *bunStore) InsertPickupRule(r model.PickupRule) (int, error) {
	row := pickupRuleToRow(r)
	row.ID = 0
	if row.CreatedAt == 0 {
		row.CreatedAt = nowMillis()
	}
	if row.UpdatedAt == 0 {
		row.UpdatedAt = row.CreatedAt
	}
	if _, err := s.bun.NewInsert().Model(&row).Exec(s.ctx()); err != nil {
		return 0, MapDBError(err)
	}
	return row.ID, nil
}

func (s *bunStore) UpdatePickupRuleMatch(id int, match string) error {
	res, err := s.bun.NewUpdate().
		Model((*pickupRuleRow)(nil)).
		Set("pattern = ?", match).
		Set("updated_at = ?", nowMillis()).
		Where("id = ?", id).
		Exec(s.ctx())
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *bunStore) DeletePickupRule(id int) error {
	_, err := s.bun.NewDelete().Model((*pickupRuleRow)(nil)).Where("id = ?", id).Exec(s.ctx())
	return MapDBError(err)
}

func (s *bunStore) DeletePickupRulesByVault(vaultID int) error {
	_, err := s.bun.NewDelete().Model((*pickupRuleRow)(nil)).
		Where("vault_id = ?", vaultID).
		Exec(s.ctx())
	return MapDBError(err)
}

// --- Backup methods ---

const backupSchemaVersion = 1

func (s *bunStore) ExportDataForBackup() (*model.BackupData, error) {
	out := &model.BackupData{
		SchemaVersion: backupSchemaVersion,
		BackupID:      uuid.NewString(),
		ExportedAt:    time.Now().UTC(),
	}

	var quotas []quotaRow
	if err := s.bun.NewSelect().Model(&quotas).Order("id ASC").Scan(s.ctx()); err != nil {
		return nil, MapDBError(err)
	}
	for _, r := range quotas {
		out.Quotas = append(out.Quotas, quotaFromRow(r))
	}

	var workspaces []workspaceRow
	if err := s.bun.NewSelect().Model(&workspaces).Order("id ASC").Scan(s.ctx()); err != nil {
		return nil, MapDBError(err)
	}
	for _, r := range workspaces {
		out.Workspaces = append(out.Workspaces, workspaceFromRow(r))
	}

	var vaults []vaultRow
	if err := s.bun.NewSelect().Model(&vaults).Order("id ASC").Scan(s.ctx()); err != nil {
		return nil, MapDBError(err)
	}
	for _, r := range vaults {
		out.Vaults = append(out.Vaults, vaultFromRow(r))
	}

	var items []itemRow
	if err := s.bun.NewSelect().Model(&items).Order("id ASC").Scan(s.ctx()); err != nil {
		return nil, MapDBError(err)
	}
	for _, r := range items {
		out.Items = append(out.Items, itemFromRow(r))
	}

	var settings []settingRow
	if err := s.bun.NewSelect().Model(&settings).Order("id ASC").Scan(s.ctx()); err != nil {
		return nil, MapDBError(err)
	}
	for _, r := range settings {
		out.Settings = append(out.Settings, settingFromRow(r))
	}

	var rules []pickupRuleRow
	if err := s.bun.NewSelect().Model(&rules).Order("id ASC").Scan(s.ctx()); err != nil {
		return nil, MapDBError(err)
	}
	for _, r := range rules {
		out.PickupRules = append(out.PickupRules, pickupRuleFromRow(r))
	}

	return out, nil
}

// ImportDataFromBackup replaces the entire dataset with the backup's
// contents, preserving row IDs so cross-table references stay valid.
func (s *bunStore) ImportDataFromBackup(backup *model.BackupData) error {
	if backup == nil {
		return errors.New("nil backup")
	}
	if backup.SchemaVersion > backupSchemaVersion {
		return errors.New("backup schema version is newer than this build supports")
	}
	err := WithTx(s.ctx(), s.bun, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range []any{
			(*pickupRuleRow)(nil), (*settingRow)(nil), (*itemRow)(nil),
			(*vaultRow)(nil), (*workspaceRow)(nil), (*quotaRow)(nil),
		} {
			if _, err := tx.NewDelete().Model(m).Where("1 = 1").Exec(ctx); err != nil {
				return err
			}
		}
		for _, q := range backup.Quotas {
			row := quotaToRow(q)
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return err
			}
		}
		for _, w := range backup.Workspaces {
			row := workspaceToRow(w)
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return err
			}
		}
		for _, v := range backup.Vaults {
			row := vaultToRow(v)
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return err
			}
		}
		for _, it := range backup.Items {
			row := itemToRow(it)
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return err
			}
		}
		for _, st := range backup.Settings {
			row := settingToRow(st)
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return err
			}
		}
		for _, r := range backup.PickupRules {
			row := pickupRuleToRow(r)
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	return MapDBError(err)
}
