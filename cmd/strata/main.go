// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for strata.
//
// Usage:
//
//	go run ./cmd/strata [flags]
//	./strata [flags]
//
// See --help for the available subcommands.
package main

import (
	"os"

	log "github.com/charmbracelet/log"

	"github.com/stratavault/strata/internal/buildvars"
)

var version = buildvars.VersionOrDefault("dev")

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Errorf("strata: %v", err)
		os.Exit(1)
	}
}
