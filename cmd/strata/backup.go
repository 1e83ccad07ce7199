// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/i18n"
	"github.com/stratavault/strata/internal/model"
)

var fullRestore bool

// backupCmd dumps the whole database into one compressed JSON file.
var backupCmd = &cobra.Command{
	Use:   "backup [output-file]",
	Short: "Create a compressed (zstd) JSON backup of the database",
	Long: `Dumps the entire contents of the strata database (quotas, workspaces,
vaults, items, settings and pickup rules) into a single
Zstandard-compressed JSON file.

If no output file is given, a default name of the form
strata-backup-YYYY-MM-DD.json.zst is used. The file can be restored
into any supported database backend.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		var outputFile string
		if len(args) == 0 {
			outputFile = fmt.Sprintf("strata-backup-%s.json.zst", time.Now().Format("2006-01-02"))
		} else {
			outputFile = args[0]
			if !strings.HasSuffix(outputFile, ".zst") {
				outputFile += ".zst"
			}
		}

		data, err := db.DefaultStore().ExportDataForBackup()
		if err != nil {
			return fmt.Errorf("could not export data: %w", err)
		}
		if err := writeCompressedBackup(outputFile, data); err != nil {
			return err
		}
		log.Infof("backup %s written", data.BackupID)
		fmt.Println(i18n.Tf("cli.backup.written", map[string]any{"Path": outputFile}))
		return nil
	},
}

// restoreCmd loads a backup file back into the configured database.
var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the database from a backup file",
	Long: `Restores a backup created by 'strata backup' into the configured
database. This is destructive: all existing rows are replaced by the
backup's contents. The --full flag must be given to confirm.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !fullRestore {
			return fmt.Errorf("restore wipes the current database; re-run with --full to confirm")
		}
		data, err := readCompressedBackup(args[0])
		if err != nil {
			return err
		}
		if err := db.DefaultStore().ImportDataFromBackup(data); err != nil {
			return fmt.Errorf("could not import backup: %w", err)
		}
		log.Infof("backup %s restored", data.BackupID)
		fmt.Println(i18n.Tf("cli.backup.restored", map[string]any{"Path": args[0]}))
		return nil
	},
}

func init() {
	restoreCmd.Flags().BoolVar(&fullRestore, "full", false, "Perform a full, destructive restore (wipes all existing data first)")
}

// writeCompressedBackup streams the JSON encoding through a zstd writer.
func writeCompressedBackup(filename string, data *model.BackupData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdWriter, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	defer func() { _ = zstdWriter.Close() }()

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	return nil
}

// readCompressedBackup reads and decodes a zstd-compressed JSON backup.
func readCompressedBackup(filename string) (*model.BackupData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var data model.BackupData
	if err := json.NewDecoder(zstdReader).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	return &data, nil
}
