// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"sort"
	"strings"
)

// MemberSet is the set of actor ids belonging to a workspace. The legacy
// store persists members as a comma-delimited string; parsing and joining
// are centralized here so the rest of the code only ever sees a set.
type MemberSet map[string]struct{}

// ParseMemberSet builds a MemberSet from the legacy comma-delimited form.
// Blank fragments are dropped.
func ParseMemberSet(s string) MemberSet {
	m := MemberSet{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			m[part] = struct{}{}
		}
	}
	return m
}

// NewMemberSet builds a MemberSet from the given actor ids.
func NewMemberSet(actors ...string) MemberSet {
	m := make(MemberSet, len(actors))
	for _, a := range actors {
		if a != "" {
			m[a] = struct{}{}
		}
	}
	return m
}

// Has reports whether the actor is in the set.
func (m MemberSet) Has(actor string) bool {
	_, ok := m[actor]
	return ok
}

// Add inserts the actor and reports whether it was not already present.
func (m MemberSet) Add(actor string) bool {
	if m.Has(actor) {
		return false
	}
	m[actor] = struct{}{}
	return true
}

// Remove deletes the actor and reports whether it was present.
func (m MemberSet) Remove(actor string) bool {
	if !m.Has(actor) {
		return false
	}
	delete(m, actor)
	return true
}

// List returns the members in sorted order.
func (m MemberSet) List() []string {
	out := make([]string, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (m MemberSet) Clone() MemberSet {
	out := make(MemberSet, len(m))
	for a := range m {
		out[a] = struct{}{}
	}
	return out
}

// String renders the legacy comma-delimited on-disk form.
func (m MemberSet) String() string {
	return strings.Join(m.List(), ",")
}

// MarshalText implements encoding.TextMarshaler using the legacy form.
func (m MemberSet) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MemberSet) UnmarshalText(b []byte) error {
	*m = ParseMemberSet(string(b))
	return nil
}
