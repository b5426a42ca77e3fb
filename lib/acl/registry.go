// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gatehouse-dev/gatehouse/lib/docstore"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// Registry stores explicit ACL entries and synthesizes defaults for
// everything else. Safe for concurrent use; GetOrDefault takes only
// the read lock and never fails.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]schema.CapabilityACL
	order   []string

	path   string
	logger *slog.Logger
}

// Options configures a Registry.
type Options struct {
	// Path locates capability_acls.json. Empty disables persistence.
	Path string

	// Logger receives operational messages. Nil means discard.
	Logger *slog.Logger
}

// NewRegistry creates a registry and loads the persisted document
// when a path is configured. A malformed document is reported and the
// registry starts empty; synthesis covers every lookup.
func NewRegistry(opts Options) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{
		entries: make(map[string]schema.CapabilityACL),
		path:    opts.Path,
		logger:  logger,
	}
	if err := r.Reload(); err != nil {
		return r, err
	}
	return r, nil
}

// Reload replaces the explicit entries from the persisted document.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	var entries []schema.CapabilityACL
	_, err := docstore.Load(r.path, &entries)
	if err != nil {
		r.mu.Lock()
		r.entries = make(map[string]schema.CapabilityACL)
		r.order = nil
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]schema.CapabilityACL, len(entries))
	r.order = r.order[:0]
	for _, entry := range entries {
		if entry.CapabilityID == "" {
			r.logger.Warn("skipping ACL entry with empty capability id")
			continue
		}
		if _, dup := r.entries[entry.CapabilityID]; dup {
			r.logger.Warn("skipping duplicate ACL entry", "capability", entry.CapabilityID)
			continue
		}
		r.entries[entry.CapabilityID] = entry
		r.order = append(r.order, entry.CapabilityID)
	}
	return nil
}

// Get returns the explicit entry for a capability id, if any.
func (r *Registry) Get(capabilityID string) (schema.CapabilityACL, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[capabilityID]
	return entry, ok
}

// GetOrDefault returns the explicit entry or the synthesized default.
// Never fails: every capability id has an ACL.
func (r *Registry) GetOrDefault(capabilityID string) schema.CapabilityACL {
	if entry, ok := r.Get(capabilityID); ok {
		return entry
	}
	return SynthesizeDefault(capabilityID)
}

// Register adds or replaces an explicit entry.
func (r *Registry) Register(entry schema.CapabilityACL) error {
	if entry.CapabilityID == "" {
		return fmt.Errorf("ACL entry requires a capability id")
	}
	entry.Synthesized = false

	r.mu.Lock()
	if _, exists := r.entries[entry.CapabilityID]; !exists {
		r.order = append(r.order, entry.CapabilityID)
	}
	r.entries[entry.CapabilityID] = entry
	r.mu.Unlock()

	return r.save()
}

// Delete removes an explicit entry. Lookups for the id synthesize a
// default afterwards; deleting is a narrowing operation, not an
// opening one.
func (r *Registry) Delete(capabilityID string) error {
	r.mu.Lock()
	if _, ok := r.entries[capabilityID]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("no explicit ACL for %s", capabilityID)
	}
	delete(r.entries, capabilityID)
	for i, id := range r.order {
		if id == capabilityID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	return r.save()
}

// List returns the explicit entries in registration order.
func (r *Registry) List() []schema.CapabilityACL {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schema.CapabilityACL, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

func (r *Registry) save() error {
	if r.path == "" {
		return nil
	}
	entries := r.List()
	if err := docstore.Save(r.path, entries); err != nil {
		return fmt.Errorf("persisting ACL entries: %w", err)
	}
	return nil
}
