// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemorySetGetDelete(t *testing.T) {
	m := NewMemoryProvider()
	defer func() { _ = m.Close() }()

	if _, ok := m.Get("missing"); ok {
		t.Fatal("empty cache returned a value")
	}

	m.Set("a", []byte("one"), 0)
	got, ok := m.Get("a")
	if !ok || string(got) != "one" {
		t.Fatalf("Get after Set: %q %v", got, ok)
	}

	m.Set("a", []byte("two"), 0)
	if got, _ := m.Get("a"); string(got) != "two" {
		t.Fatalf("overwrite not visible: %q", got)
	}

	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemoryProvider()
	defer func() { _ = m.Close() }()

	m.Set("short", []byte("x"), 10*time.Millisecond)
	m.Set("forever", []byte("y"), 0)

	if _, ok := m.Get("short"); !ok {
		t.Fatal("entry missing before its TTL")
	}

	time.Sleep(25 * time.Millisecond)

	// Expired entries are evicted lazily, on the read that finds them.
	if _, ok := m.Get("short"); ok {
		t.Fatal("entry alive past its TTL")
	}
	if m.Exists("short") {
		t.Fatal("Exists reported an expired entry")
	}
	if _, ok := m.Get("forever"); !ok {
		t.Fatal("zero-TTL entry expired")
	}
}

func TestMemoryKeysSkipExpired(t *testing.T) {
	m := NewMemoryProvider()
	defer func() { _ = m.Close() }()

	m.Set("quota:alice", []byte("x"), 10*time.Millisecond)
	m.Set("quota:bob", []byte("y"), 0)
	m.Set("vault:1", []byte("z"), 0)

	time.Sleep(25 * time.Millisecond)

	keys := m.Keys("quota:")
	if len(keys) != 1 || keys[0] != "quota:bob" {
		t.Fatalf("Keys = %v, want only quota:bob", keys)
	}
}

func TestMemoryDeleteByPrefixExactness(t *testing.T) {
	m := NewMemoryProvider()
	defer func() { _ = m.Close() }()

	m.Set("items:7:1:shared", []byte("a"), 0)
	m.Set("items:7:2:shared", []byte("b"), 0)
	m.Set("items:71:1:shared", []byte("c"), 0)
	m.Set("item:7:1:shared", []byte("d"), 0)

	m.DeleteByPrefix("items:7:")

	for _, gone := range []string{"items:7:1:shared", "items:7:2:shared"} {
		if _, ok := m.Get(gone); ok {
			t.Fatalf("%s survived prefix delete", gone)
		}
	}
	// Near-miss keys share a leading run but not the prefix.
	for _, kept := range []string{"items:71:1:shared", "item:7:1:shared"} {
		if _, ok := m.Get(kept); !ok {
			t.Fatalf("%s wrongly deleted", kept)
		}
	}
}

func TestMemoryClear(t *testing.T) {
	m := NewMemoryProvider()
	defer func() { _ = m.Close() }()

	m.Set("a", []byte("x"), 0)
	m.Set("b", []byte("y"), 0)
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("Len after Clear: %d", m.Len())
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemoryProvider()
	defer func() { _ = m.Close() }()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k:%d:%d", w, i%10)
				m.Set(key, []byte("v"), time.Minute)
				m.Get(key)
				if i%25 == 0 {
					m.DeleteByPrefix(fmt.Sprintf("k:%d:", w))
				}
			}
		}(w)
	}
	wg.Wait()

	// Every surviving entry must still be readable.
	for _, k := range m.Keys("k:") {
		if _, ok := m.Get(k); !ok {
			t.Fatalf("key %s listed but unreadable", k)
		}
	}
}

func TestMemorySweepEvictsExpired(t *testing.T) {
	m := NewMemoryProvider()
	defer func() { _ = m.Close() }()

	m.Set("gone", []byte("x"), 5*time.Millisecond)
	m.StartSweep(10 * time.Millisecond)

	deadline := time.After(time.Second)
	for m.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("sweep never evicted the expired entry, Len=%d", m.Len())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
