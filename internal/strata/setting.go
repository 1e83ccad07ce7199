// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

// Per-vault, per-actor settings. Thin wrappers over the setting facade;
// the owner scope here is always the acting actor, independent of the
// workspace type.

// Setting returns the value of a vault setting for the actor.
func (c *Core) Setting(vaultID int, key, actor string) (string, bool, error) {
	return c.caches.Settings.Get(vaultID, key, actor)
}

// SetSetting upserts a vault setting for the actor.
func (c *Core) SetSetting(vaultID int, key, actor, value string) error {
	return c.caches.Settings.Put(vaultID, key, actor, value)
}

// RemoveSetting deletes a vault setting for the actor.
func (c *Core) RemoveSetting(vaultID int, key, actor string) error {
	return c.caches.Settings.Remove(vaultID, key, actor)
}
