// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package strata

import (
	"strings"
	"unicode"
)

// NameRules validates workspace and vault names before anything is
// persisted. The zero value accepts nothing useful; use DefaultNameRules.
type NameRules struct {
	MinLength int
	MaxLength int
	// Blacklist entries are matched case-insensitively against the
	// whole name.
	Blacklist []string
}

// DefaultNameRules mirrors the configuration defaults.
func DefaultNameRules() NameRules {
	return NameRules{MinLength: 2, MaxLength: 32}
}

// colorMarkers are formatting escape characters forbidden in names.
const colorMarkers = "&§"

// Check validates the name and returns the first violated rule.
func (r NameRules) Check(name string) Result {
	if strings.ContainsAny(name, colorMarkers) {
		return fail(ReasonNameColor)
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fail(ReasonNameInvalid)
	}
	if len([]rune(trimmed)) < r.MinLength || len([]rune(trimmed)) > r.MaxLength {
		return fail(ReasonNameLength)
	}
	for _, c := range trimmed {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '-' || c == '_' || c == ' ' {
			continue
		}
		return fail(ReasonNameInvalid)
	}
	lower := strings.ToLower(trimmed)
	for _, blocked := range r.Blacklist {
		if lower == strings.ToLower(strings.TrimSpace(blocked)) {
			return fail(ReasonNameBlacklisted)
		}
	}
	return ok()
}
