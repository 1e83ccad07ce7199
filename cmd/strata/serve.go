// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stratavault/strata/internal/cache"
	"github.com/stratavault/strata/internal/db"
	"github.com/stratavault/strata/internal/entitycache"
	"github.com/stratavault/strata/internal/event"
	"github.com/stratavault/strata/internal/i18n"
	"github.com/stratavault/strata/internal/pickup"
	"github.com/stratavault/strata/internal/strata"
	"github.com/stratavault/strata/internal/viewsync"
)

// buildCore wires the full service stack from the loaded configuration:
// store, cache facades, event bus, view registry and pickup routing.
func buildCore() (*strata.Core, *pickup.Service, func(), error) {
	store := db.DefaultStore()
	if store == nil {
		return nil, nil, nil, fmt.Errorf("database is not initialized")
	}

	provider := cache.New(appConfig.Cache)
	caches := entitycache.NewService(store, provider, appConfig.Cache.EffectiveTTL())
	caches.Quotas.DefaultWorkspaceLimit = appConfig.Quota.WorkspaceLimit
	caches.Quotas.DefaultSizeLimit = appConfig.Quota.SizeLimit

	bus := event.NewBus()
	loop := viewsync.NewLoop()
	views := viewsync.NewRegistry(loop, bus)
	views.Start()

	router := pickup.NewService(caches, bus)
	router.SetNotify(views.ItemSet)
	router.Start()

	names := strata.NameRules{
		MinLength: appConfig.Names.MinLength,
		MaxLength: appConfig.Names.MaxLength,
		Blacklist: appConfig.Names.Blacklist,
	}
	core := strata.New(store, caches, bus, views, names)

	stop := func() {
		router.Stop()
		views.Stop()
		loop.Stop()
	}
	return core, router, stop, nil
}

// serveCmd runs the service until interrupted.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the strata service",
	Long:    `Starts the vault storage service and runs until interrupted.`,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	_, _, stop, err := buildCore()
	if err != nil {
		return err
	}
	defer stop()

	log.Infof("%s (db=%s cache=%s)", i18n.T("cli.serve.started"), appConfig.DB.Type, appConfig.Cache.Type)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info(i18n.T("cli.serve.stopped"))
	return nil
}
