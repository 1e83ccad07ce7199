// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stratavault/strata/internal/model"
)

func TestRootHelpListsCommands(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, want := range []string{"serve", "quota", "backup", "restore", "db-maintain"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestBackupFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json.zst")

	data := &model.BackupData{
		SchemaVersion: 1,
		BackupID:      "test-backup",
		Quotas:        []model.Quota{{ID: 1, Account: "alice", WorkspaceLimit: 5, SizeLimit: 100}},
		Workspaces:    []model.Workspace{{ID: 1, Owner: "alice", Name: "main", Type: model.WorkspacePublic}},
	}
	if err := writeCompressedBackup(path, data); err != nil {
		t.Fatalf("writeCompressedBackup: %v", err)
	}

	got, err := readCompressedBackup(path)
	if err != nil {
		t.Fatalf("readCompressedBackup: %v", err)
	}
	if got.BackupID != "test-backup" || len(got.Quotas) != 1 || len(got.Workspaces) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Quotas[0].Account != "alice" {
		t.Fatalf("quota row mismatch: %+v", got.Quotas[0])
	}
}

func TestRestoreRefusesWithoutFullFlag(t *testing.T) {
	fullRestore = false
	err := restoreCmd.RunE(restoreCmd, []string{"nope.json.zst"})
	if err == nil || !strings.Contains(err.Error(), "--full") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}
