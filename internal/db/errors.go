// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"errors"
	"strings"
)

// Sentinel errors returned by the store so callers can branch on outcome
// without caring about the underlying SQL engine.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("db: not found")
	// ErrDuplicate is returned when an insert or update violates a
	// uniqueness constraint.
	ErrDuplicate = errors.New("db: duplicate")
)

// MapDBError maps driver-specific errors to portable sentinel errors.
// Drivers do not share a common error taxonomy, so this falls back to
// message matching for constraint violations.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "unique violation"),
		strings.Contains(msg, "duplicate entry"),
		strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "constraint failed: unique"):
		return ErrDuplicate
	}
	return err
}

// IsNotFound reports whether err maps to a missing row.
func IsNotFound(err error) bool {
	return errors.Is(MapDBError(err), ErrNotFound)
}
