// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

import (
	"errors"
	"strings"

	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/model"
)

// Pickup rule administration. Every mutation invalidates the vault's
// rule cache and announces the change so per-actor candidate caches
// rebuild.

// VaultRules returns the vault's pickup rules in id order.
func (c *Core) VaultRules(vaultID int) ([]model.PickupRule, error) {
	return c.caches.Rules.Get(vaultID)
}

// AddRule attaches an allow or deny rule to the vault.
func (c *Core) AddRule(vaultID int, kind model.RuleKind, match string) (Result, *model.PickupRule, error) {
	if kind != model.RuleAllow && kind != model.RuleDeny {
		return fail(ReasonTypeInvalid), nil, nil
	}
	if strings.TrimSpace(match) == "" {
		return fail(ReasonNameInvalid), nil, nil
	}
	if _, err := c.caches.Vaults.Get(vaultID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil, nil
		}
		return fail(ReasonNotFound), nil, err
	}

	r := model.PickupRule{VaultID: vaultID, Kind: kind, Match: match}
	id, err := c.store.InsertPickupRule(r)
	if err != nil {
		return fail(ReasonNotFound), nil, err
	}
	r.ID = id

	c.caches.Rules.Invalidate(vaultID)
	c.bus.Publish(event.Event{Type: event.TypeRuleChanged, VaultID: vaultID})
	return ok(), &r, nil
}

// UpdateRule replaces a rule's match expression.
func (c *Core) UpdateRule(ruleID, vaultID int, match string) (Result, error) {
	if strings.TrimSpace(match) == "" {
		return fail(ReasonNameInvalid), nil
	}
	if err := c.store.UpdatePickupRuleMatch(ruleID, match); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail(ReasonNotFound), nil
		}
		return fail(ReasonNotFound), err
	}
	c.caches.Rules.Invalidate(vaultID)
	c.bus.Publish(event.Event{Type: event.TypeRuleChanged, VaultID: vaultID})
	return ok(), nil
}

// RemoveRule deletes a rule from the vault.
func (c *Core) RemoveRule(ruleID, vaultID int) (Result, error) {
	if err := c.store.DeletePickupRule(ruleID); err != nil {
		return fail(ReasonNotFound), err
	}
	c.caches.Rules.Invalidate(vaultID)
	c.bus.Publish(event.Event{Type: event.TypeRuleChanged, VaultID: vaultID})
	return ok(), nil
}
