// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/uptrace/bun"

// SqliteStore is the SQLite-backed implementation of Store. It is the
// default engine and the one integration tests run against.
type SqliteStore struct {
	bunStore
}

// NewSqliteStore wraps an already-migrated *bun.DB.
func NewSqliteStore(db *bun.DB) *SqliteStore {
	return &SqliteStore{bunStore{bun: db}}
}
