// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import (
	"strings"
	"testing"
)

func TestTranslateKnownMessage(t *testing.T) {
	Init("en")
	msg := T("reason.quota-exceeded")
	if msg == "reason.quota-exceeded" || msg == "" {
		t.Fatalf("expected translation, got %q", msg)
	}
}

func TestUnknownIDFallsBackToID(t *testing.T) {
	Init("en")
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("expected verbatim fallback, got %q", got)
	}
}

func TestTemplateData(t *testing.T) {
	Init("en")
	msg := Tf("cli.backup.written", map[string]any{"Path": "/tmp/b.gz"})
	if !strings.Contains(msg, "/tmp/b.gz") {
		t.Fatalf("template data not applied: %q", msg)
	}
}
