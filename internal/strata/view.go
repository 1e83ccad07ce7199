// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

import (
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/viewsync"
)

// View registration. Transports call these instead of the registry
// directly so that views onto independent vaults are never registered:
// their content is per-actor and has nobody to synchronize with.

// OpenPageView registers a viewer on a vault page. For independent
// vaults the viewer stays unregistered and synchronized reports false.
func (c *Core) OpenPageView(v viewsync.Viewer, vaultID, page int) (synchronized bool, err error) {
	vault, w, res, err := c.vaultWithWorkspace(vaultID)
	if !res.OK {
		if err == nil {
			err = db.ErrNotFound
		}
		return false, err
	}
	if page < 1 || page > vault.MaxPage() {
		return false, db.ErrNotFound
	}
	if w.Independent() || c.views == nil {
		return false, nil
	}
	if err := c.views.OpenPage(v, vaultID, page); err != nil {
		return false, err
	}
	return true, nil
}

// OpenSearchView registers a viewer on a filtered vault view, with the
// same independent-vault exemption as OpenPageView.
func (c *Core) OpenSearchView(v viewsync.Viewer, vaultID int, params viewsync.FilterParams) (synchronized bool, err error) {
	_, w, res, err := c.vaultWithWorkspace(vaultID)
	if !res.OK {
		if err == nil {
			err = db.ErrNotFound
		}
		return false, err
	}
	if w.Independent() || c.views == nil {
		return false, nil
	}
	c.views.OpenSearch(v, vaultID, params)
	return true, nil
}

// CloseView unregisters a viewer from every group it is in.
func (c *Core) CloseView(v viewsync.Viewer) {
	if c.views != nil {
		c.views.CloseViewer(v)
	}
}
