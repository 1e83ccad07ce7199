// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/uptrace/bun"

// PostgresStore is the PostgreSQL-backed implementation of Store.
type PostgresStore struct {
	bunStore
}

// NewPostgresStore wraps an already-migrated *bun.DB.
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{bunStore{bun: db}}
}
