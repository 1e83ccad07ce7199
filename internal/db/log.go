// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/stratavault/strata/internal/logging"

var dbDebug bool

// SetDebug enables verbose logging for database operations.
func SetDebug(enabled bool) {
	dbDebug = enabled
}

// dbLogf emits debug-level database log lines when debug is enabled.
func dbLogf(format string, args ...any) {
	if !dbDebug {
		return
	}
	logging.Debugf(format, args...)
}
