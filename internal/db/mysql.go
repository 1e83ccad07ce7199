// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/uptrace/bun"

// MySQLStore is the MySQL/MariaDB-backed implementation of Store.
type MySQLStore struct {
	bunStore
}

// NewMySQLStore wraps an already-migrated *bun.DB.
func NewMySQLStore(db *bun.DB) *MySQLStore {
	return &MySQLStore{bunStore{bun: db}}
}
