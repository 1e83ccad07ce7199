// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// root.go sets up the command-line interface for strata using the Cobra
// library. It defines the root command, its persistent flags, and the
// shared setup that loads configuration and opens the database.

package main

import (
	"errors"
	"fmt"
	"os"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stratavault/strata/internal/buildvars"
	"github.com/stratavault/strata/internal/config"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/i18n"
	"github.com/stratavault/strata/internal/logging"
)

var cfgFile string
var verbose bool

var appConfig config.Config

// setupDefaultServices loads the configuration, switches log levels and
// opens the database. It runs before every command that touches data.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	configPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.LoadConfig(cmd, configPath)
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		// First run: persist the defaults so later runs have a file to edit.
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			log.Warnf("could not write default config file: %v", writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if verbose || appConfig.Log.Debug {
		logging.SetDebug(true)
		db.SetDebug(true)
	}

	i18n.Init("en")

	if !db.IsInitialized() {
		if err := db.InitDB(appConfig.DB.Type, appConfig.DB.DSN); err != nil {
			return fmt.Errorf("could not initialize database: %w", err)
		}
	}

	return nil
}

// getConfigPathFromCli returns the --config flag value when the user set
// it explicitly, after checking the file exists.
func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// NewRootCmd creates and configures a new root cobra command. Tests use
// this to get fresh, isolated instances.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strata",
		Short: "Strata is a multi-tenant, quota-limited vault storage service.",
		Long: `Strata manages hierarchical storage for many tenants: accounts own
workspaces, workspaces hold vaults, and vaults hold paged item slots.
Quota counters, pickup rules and live view synchronization run on top
of a pluggable cache and a SQL database as the source of truth.

Running without a subcommand starts the service.`,
		PersistentPreRunE: setupDefaultServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	cmd.Version = version
	if buildvars.Commit != "" {
		cmd.Version += " (" + buildvars.Commit + ")"
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug-level logs)")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("db.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db.dsn", "strata.db", "Database connection string (DSN)")

	cmd.AddCommand(serveCmd)
	cmd.AddCommand(newQuotaCmd())
	cmd.AddCommand(dbMaintainCmd)
	cmd.AddCommand(backupCmd)
	cmd.AddCommand(restoreCmd)

	return cmd
}
