// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

import "github.com/stratavault/strata/internal/model"

// Quota administration. Limits never drop below current usage; usage
// counters themselves move only through the CAS paths in core.go.

// GetQuota returns the account's quota, creating defaults on first use.
func (c *Core) GetQuota(account string) (*model.Quota, error) {
	return c.caches.Quotas.Get(account)
}

// SetWorkspaceLimit sets the workspace-count limit.
func (c *Core) SetWorkspaceLimit(account string, limit int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	if limit < 0 || (!q.Unlimited && limit < q.WorkspaceUsed) {
		return fail(ReasonLimitBelowUsage), nil
	}
	if err := c.store.SetQuotaWorkspaceLimit(account, limit); err != nil {
		return fail(ReasonNotFound), err
	}
	c.caches.Quotas.Invalidate(account)
	return ok(), nil
}

// AddWorkspaceLimit raises the workspace-count limit by delta.
func (c *Core) AddWorkspaceLimit(account string, delta int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	return c.SetWorkspaceLimit(account, q.WorkspaceLimit+delta)
}

// RemoveWorkspaceLimit lowers the workspace-count limit by delta.
func (c *Core) RemoveWorkspaceLimit(account string, delta int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	return c.SetWorkspaceLimit(account, q.WorkspaceLimit-delta)
}

// SetSizeLimit sets the total-capacity limit in slots.
func (c *Core) SetSizeLimit(account string, limit int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	if limit < 0 || (!q.Unlimited && limit < q.SizeUsed) {
		return fail(ReasonLimitBelowUsage), nil
	}
	if err := c.store.SetQuotaSizeLimit(account, limit); err != nil {
		return fail(ReasonNotFound), err
	}
	c.caches.Quotas.Invalidate(account)
	return ok(), nil
}

// AddSizeLimit raises the capacity limit by delta slots.
func (c *Core) AddSizeLimit(account string, delta int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	return c.SetSizeLimit(account, q.SizeLimit+delta)
}

// RemoveSizeLimit lowers the capacity limit by delta slots.
func (c *Core) RemoveSizeLimit(account string, delta int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	return c.SetSizeLimit(account, q.SizeLimit-delta)
}

// SetUnlimited toggles the unlimited flag. Turning it off with usage
// above a limit is rejected so the invariant holds afterwards.
func (c *Core) SetUnlimited(account string, unlimited bool) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	if !unlimited && (q.WorkspaceUsed > q.WorkspaceLimit || q.SizeUsed > q.SizeLimit) {
		return fail(ReasonLimitBelowUsage), nil
	}
	if err := c.store.SetQuotaUnlimited(account, unlimited); err != nil {
		return fail(ReasonNotFound), err
	}
	c.caches.Quotas.Invalidate(account)
	return ok(), nil
}

// ResetQuota restores the account's limits to the given defaults and
// clears the unlimited flag. Usage counters are untouched; a reset
// below current usage is rejected like any other lowering.
func (c *Core) ResetQuota(account string, workspaceLimit, sizeLimit int) (Result, error) {
	q, err := c.caches.Quotas.Get(account)
	if err != nil {
		return fail(ReasonNotFound), err
	}
	if workspaceLimit < q.WorkspaceUsed || sizeLimit < q.SizeUsed {
		return fail(ReasonLimitBelowUsage), nil
	}
	if err := c.store.SetQuotaLimits(account, workspaceLimit, sizeLimit, false); err != nil {
		return fail(ReasonNotFound), err
	}
	c.caches.Quotas.Invalidate(account)
	return ok(), nil
}
