// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-dev/gatehouse/lib/clock"
)

const shardCount = 16

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// Store indexes live sessions by id. The index is sharded so lookups
// for unrelated sessions never contend; per-session serialization is
// the Session's own mutex.
type Store struct {
	shards [shardCount]*shard

	ttl    time.Duration
	clk    clock.Clock
	logger *slog.Logger

	reapOnce sync.Once
	stopOnce sync.Once
	stop     chan struct{}
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// TTL is the session lifetime. Zero means DefaultTTL.
	TTL time.Duration

	// Clock supplies time for expiry. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives reaper activity. Nil means discard.
	Logger *slog.Logger
}

// NewStore creates an empty session store.
func NewStore(opts StoreOptions) *Store {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:    ttl,
		clk:    clk,
		logger: logger,
		stop:   make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*Session)}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Create registers a new session for a channel with a random id.
func (s *Store) Create(channel string) *Session {
	id := uuid.NewString()
	sess := New(id, channel, s.clk.Now(), s.ttl)
	sh := s.shardFor(id)
	sh.mu.Lock()
	sh.sessions[id] = sess
	sh.mu.Unlock()
	return sess
}

// Get returns the live session with the given id. An expired session
// is removed and reported as absent.
func (s *Store) Get(id string) (*Session, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	sess, ok := sh.sessions[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if sess.IsExpired(s.clk.Now()) {
		s.Delete(id)
		return nil, false
	}
	return sess, true
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	delete(sh.sessions, id)
	sh.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included
// until the reaper collects them.
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total
}

// StartReaper launches the background TTL sweep at the given
// interval. Subsequent calls are no-ops. Stop ends the sweep.
func (s *Store) StartReaper(interval time.Duration) {
	s.reapOnce.Do(func() {
		go s.reapLoop(interval)
	})
}

// Stop ends the reaper goroutine, if started. Safe to call more than
// once, including concurrently.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) reapLoop(interval time.Duration) {
	ticker := s.clk.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if reaped := s.Reap(); reaped > 0 {
				s.logger.Debug("reaped expired sessions", "count", reaped)
			}
		case <-s.stop:
			return
		}
	}
}

// Reap removes every expired session and returns how many it removed.
func (s *Store) Reap() int {
	now := s.clk.Now()
	reaped := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if sess.IsExpired(now) {
				delete(sh.sessions, id)
				reaped++
			}
		}
		sh.mu.Unlock()
	}
	return reaped
}
