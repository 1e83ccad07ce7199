// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package event

import "testing"

func TestBusDeliversToTypeSubscribers(t *testing.T) {
	b := NewBus()

	var got []Event
	b.Subscribe(TypeItemSet, func(e Event) { got = append(got, e) })

	b.Publish(Event{Type: TypeItemSet, VaultID: 7, Page: 1, Slot: 3})
	b.Publish(Event{Type: TypeItemRemoved, VaultID: 7, Page: 1, Slot: 3})

	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].VaultID != 7 || got[0].Slot != 3 {
		t.Fatalf("unexpected event: %+v", got[0])
	}
	if got[0].Timestamp.IsZero() {
		t.Fatal("timestamp not stamped")
	}
}

func TestBusSubscribeAll(t *testing.T) {
	b := NewBus()

	var count int
	b.SubscribeAll(func(Event) { count++ })

	b.Publish(Event{Type: TypeVaultOpened})
	b.Publish(Event{Type: TypeActorConnected})
	if count != 2 {
		t.Fatalf("expected 2 deliveries, got %d", count)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()

	var count int
	off := b.Subscribe(TypeRuleChanged, func(Event) { count++ })

	b.Publish(Event{Type: TypeRuleChanged})
	off()
	b.Publish(Event{Type: TypeRuleChanged})

	if count != 1 {
		t.Fatalf("expected 1 delivery after unsubscribe, got %d", count)
	}
}
