// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/i18n"
)

// dbMaintainCmd runs engine-specific housekeeping against the
// configured database.
var dbMaintainCmd = &cobra.Command{
	Use:   "db-maintain",
	Short: "Run database maintenance (vacuum, optimize, integrity checks)",
	Long: `Performs engine-specific maintenance on the configured database:
SQLite gets PRAGMA optimize, VACUUM, a WAL checkpoint and an integrity
check; PostgreSQL gets VACUUM ANALYZE; MySQL gets OPTIMIZE TABLE on all
strata tables.`,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.RunDBMaintenance(appConfig.DB.Type, appConfig.DB.DSN); err != nil {
			return err
		}
		fmt.Println(i18n.T("cli.db.maintenance.done"))
		return nil
	},
}
