// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/gatehouse-dev/gatehouse/lib/clock"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
	"github.com/gatehouse-dev/gatehouse/lib/testutil"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestExpiry(t *testing.T) {
	s := New("s-1", "cli", epoch, time.Hour)
	if s.IsExpired(epoch.Add(59 * time.Minute)) {
		t.Error("session expired early")
	}
	if !s.IsExpired(epoch.Add(time.Hour)) {
		t.Error("session outlived its TTL")
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	s := New("s-1", "cli", epoch, 0)
	if s.IsExpired(epoch.Add(23 * time.Hour)) {
		t.Error("default TTL shorter than 24h")
	}
	if !s.IsExpired(epoch.Add(24 * time.Hour)) {
		t.Error("default TTL longer than 24h")
	}
}

func TestPermissions(t *testing.T) {
	s := New("s-1", "cli", epoch, time.Hour)
	if s.HasPermission(schema.PermissionRead) {
		t.Error("fresh session holds a permission")
	}
	s.GrantPermission(schema.PermissionRead)
	if !s.HasPermission(schema.PermissionRead) {
		t.Error("granted permission missing")
	}
	s.RevokePermission(schema.PermissionRead)
	if s.HasPermission(schema.PermissionRead) {
		t.Error("revoked permission still held")
	}

	s.MergePermissions(schema.PermissionSet{schema.PermissionWildcard})
	if !s.HasPermission(schema.PermissionAdmin) {
		t.Error("wildcard grant does not cover admin")
	}
}

func TestCapabilityCacheValidity(t *testing.T) {
	s := New("s-1", "cli", epoch, time.Hour)
	if s.CachesValid() {
		t.Error("fresh session claims valid caches")
	}

	s.SetIdentity("org:a:role:member:person:p", "member", schema.AssuranceMedium)
	s.ReplaceCapabilityCaches(
		[]string{"skill.a", "skill.b"},
		[]string{"skill.a"},
		map[string]schema.PermissionSet{"skill.a": {schema.PermissionExecute}},
		"org:a:role:member:person:p", schema.AssuranceMedium,
	)
	if !s.CachesValid() {
		t.Error("caches invalid right after compute")
	}
	if !s.CanSee("skill.b") || s.CanAccess("skill.b") {
		t.Error("visible/accessible sets confused")
	}
	if perms, ok := s.CachedPermissions("skill.a"); !ok || !perms.Has(schema.PermissionExecute) {
		t.Error("cached permissions lost")
	}

	// An assurance change invalidates without touching the cache
	// contents.
	s.SetIdentity("org:a:role:member:person:p", "member", schema.AssuranceHigh)
	if s.CachesValid() {
		t.Error("caches still valid after assurance change")
	}
}

func TestCacheReplacementIsWholesale(t *testing.T) {
	s := New("s-1", "cli", epoch, time.Hour)
	s.ReplaceCapabilityCaches([]string{"skill.old"}, []string{"skill.old"}, nil, "p", schema.AssuranceLow)
	s.ReplaceCapabilityCaches([]string{"skill.new"}, nil, nil, "p", schema.AssuranceHigh)

	// The second compute replaces, never unions.
	if s.CanSee("skill.old") || s.CanAccess("skill.old") {
		t.Error("stale cache entries survived recompute")
	}
	if !s.CanSee("skill.new") {
		t.Error("fresh cache entry missing")
	}
}

func TestStoreLifecycle(t *testing.T) {
	clk := clock.Fake(epoch)
	store := NewStore(StoreOptions{TTL: time.Hour, Clock: clk})
	defer store.Stop()

	sess := store.Create("cli")
	if sess.ID() == "" || sess.Channel() != "cli" {
		t.Fatalf("created session %q on %q", sess.ID(), sess.Channel())
	}
	if got, ok := store.Get(sess.ID()); !ok || got != sess {
		t.Fatal("created session not retrievable")
	}

	store.Delete(sess.ID())
	if _, ok := store.Get(sess.ID()); ok {
		t.Error("deleted session retrievable")
	}
}

func TestStoreExpiresOnGet(t *testing.T) {
	clk := clock.Fake(epoch)
	store := NewStore(StoreOptions{TTL: time.Hour, Clock: clk})
	defer store.Stop()

	sess := store.Create("cli")
	clk.Advance(2 * time.Hour)
	if _, ok := store.Get(sess.ID()); ok {
		t.Error("expired session returned")
	}
	if store.Len() != 0 {
		t.Error("expired session not removed on Get")
	}
}

func TestStoreReap(t *testing.T) {
	clk := clock.Fake(epoch)
	store := NewStore(StoreOptions{TTL: time.Hour, Clock: clk})
	defer store.Stop()

	for range 5 {
		store.Create("cli")
	}
	clk.Advance(30 * time.Minute)
	fresh := store.Create("cli")
	clk.Advance(45 * time.Minute) // first five expired, fresh is not

	if reaped := store.Reap(); reaped != 5 {
		t.Errorf("Reap = %d, want 5", reaped)
	}
	if _, ok := store.Get(fresh.ID()); !ok {
		t.Error("fresh session reaped")
	}
}

func TestStoreStopIdempotent(t *testing.T) {
	store := NewStore(StoreOptions{TTL: time.Hour, Clock: clock.Fake(epoch)})
	store.StartReaper(time.Minute)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Stop()
		}()
	}
	wg.Wait()
	store.Stop()
}

func TestReaperLoop(t *testing.T) {
	clk := clock.Fake(epoch)
	store := NewStore(StoreOptions{TTL: time.Minute, Clock: clk})
	defer store.Stop()

	store.Create(testutil.UniqueID("channel"))
	store.StartReaper(30 * time.Second)

	// Past the TTL and past a tick boundary; the loop goroutine should
	// pick the tick up and sweep.
	clk.Advance(2 * time.Minute)

	emptied := make(chan struct{}, 1)
	go func() {
		for store.Len() > 0 {
			time.Sleep(time.Millisecond)
		}
		emptied <- struct{}{}
	}()
	testutil.RequireReceive(t, emptied, 5*time.Second, "reaper loop never removed the expired session")
}
