// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package viewsync

import (
	"fmt"
	"strings"

	"github.com/stratavault/strata/internal/model"
)

// FilterParams describes a filtered (search) view over a whole vault.
// Matching is case-insensitive substring on each non-empty field.
type FilterParams struct {
	// Query matches against the item name.
	Query string
	// Kind matches against the item kind.
	Kind string
	// Label matches any of the item's labels.
	Label string
}

// key returns the canonical group key for these params. Two views with
// the same normalized params share one group.
func (p FilterParams) key() string {
	return fmt.Sprintf("q=%s|k=%s|l=%s",
		strings.ToLower(strings.TrimSpace(p.Query)),
		strings.ToLower(strings.TrimSpace(p.Kind)),
		strings.ToLower(strings.TrimSpace(p.Label)),
	)
}

// Empty reports whether the params match everything.
func (p FilterParams) Empty() bool {
	return strings.TrimSpace(p.Query) == "" &&
		strings.TrimSpace(p.Kind) == "" &&
		strings.TrimSpace(p.Label) == ""
}

// Matches reports whether the item satisfies every non-empty field.
func (p FilterParams) Matches(item model.Item) bool {
	if q := strings.ToLower(strings.TrimSpace(p.Query)); q != "" {
		if !strings.Contains(strings.ToLower(item.Name), q) {
			return false
		}
	}
	if k := strings.ToLower(strings.TrimSpace(p.Kind)); k != "" {
		if !strings.Contains(strings.ToLower(item.Kind), k) {
			return false
		}
	}
	if l := strings.ToLower(strings.TrimSpace(p.Label)); l != "" {
		found := false
		for _, label := range item.Labels {
			if strings.Contains(strings.ToLower(label), l) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Apply returns the items matching the params, preserving order.
func (p FilterParams) Apply(items []model.Item) []model.Item {
	if p.Empty() {
		return items
	}
	var out []model.Item
	for _, it := range items {
		if p.Matches(it) {
			out = append(out, it)
		}
	}
	return out
}
