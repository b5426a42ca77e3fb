// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// Query narrows List results. Zero value matches every enabled
// descriptor.
type Query struct {
	// Kind restricts to one capability kind when non-empty.
	Kind schema.CapabilityKind

	// Substrate restricts to one execution substrate when non-empty.
	Substrate schema.Substrate

	// IncludeDisabled also returns disabled descriptors. The default
	// (false) matches the common routing case: disabled capabilities
	// do not exist for discovery.
	IncludeDisabled bool
}

type triggerEntry struct {
	trigger string // normalized
	id      string
}

// Registry is the indexed store of capability descriptors. Safe for
// concurrent use; lookups take the read lock only.
type Registry struct {
	mu sync.RWMutex

	descriptors map[string]schema.CapabilityDescriptor
	order       []string

	// commands maps normalized alias → capability id.
	commands map[string]string

	// triggers is kept sorted by descending trigger length so the
	// longest trigger wins a substring scan.
	triggers []triggerEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]schema.CapabilityDescriptor),
		commands:    make(map[string]string),
	}
}

// Register adds or replaces a descriptor.
//
//   - An identical re-registration of a mutable descriptor is a no-op:
//     the count and the indexes are left untouched.
//   - A changed re-registration of a mutable descriptor replaces it and
//     rebuilds its index entries.
//   - Any re-registration of an immutable id is an error.
//   - A command alias already claimed by a different capability is an
//     error; silent shadowing of commands is never acceptable.
func (r *Registry) Register(d schema.CapabilityDescriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.descriptors[d.ID]
	if exists {
		if existing.Immutable {
			return fmt.Errorf("capability %s is immutable and cannot be re-registered", d.ID)
		}
		if existing.Equal(d) {
			return nil
		}
	}

	// Check alias conflicts before mutating anything.
	for _, alias := range d.Commands {
		normalized := NormalizeCommand(alias)
		if normalized == "" {
			return fmt.Errorf("capability %s: empty command alias", d.ID)
		}
		if owner, taken := r.commands[normalized]; taken && owner != d.ID {
			return fmt.Errorf("command %q already routes to %s", normalized, owner)
		}
	}

	if exists {
		r.dropIndexesLocked(existing)
	} else {
		r.order = append(r.order, d.ID)
	}
	r.descriptors[d.ID] = d
	r.addIndexesLocked(d)
	return nil
}

// Unregister removes a descriptor and its index entries. Immutable
// descriptors cannot be removed.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.descriptors[id]
	if !ok {
		return fmt.Errorf("capability %s not registered", id)
	}
	if d.Immutable {
		return fmt.Errorf("capability %s is immutable and cannot be unregistered", id)
	}
	r.dropIndexesLocked(d)
	delete(r.descriptors, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (schema.CapabilityDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[id]
	return d, ok
}

// List returns descriptors matching the query, in registration order.
func (r *Registry) List(q Query) []schema.CapabilityDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []schema.CapabilityDescriptor
	for _, id := range r.order {
		d := r.descriptors[id]
		if !q.IncludeDisabled && !d.Enabled {
			continue
		}
		if q.Kind != "" && d.Kind != q.Kind {
			continue
		}
		if q.Substrate != "" && d.Substrate != q.Substrate {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Count returns the number of registered descriptors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// FindByCommand routes raw command text ("/help", "--version",
// "/status?verbose=1") to a descriptor by exact alias match after
// normalization. Disabled capabilities still resolve; the invocation
// engine turns them into a not-found error so routing bugs and
// authorization denials stay distinguishable.
func (r *Registry) FindByCommand(text string) (schema.CapabilityDescriptor, bool) {
	alias := NormalizeCommand(text)
	if alias == "" {
		return schema.CapabilityDescriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.commands[alias]
	if !ok {
		return schema.CapabilityDescriptor{}, false
	}
	return r.descriptors[id], true
}

// FindByTrigger routes free text to a descriptor by case-insensitive
// substring match over the trigger index, longest trigger first.
func (r *Registry) FindByTrigger(text string) (schema.CapabilityDescriptor, bool) {
	normalized := NormalizeTrigger(text)
	if normalized == "" {
		return schema.CapabilityDescriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.triggers {
		if strings.Contains(normalized, entry.trigger) {
			return r.descriptors[entry.id], true
		}
	}
	return schema.CapabilityDescriptor{}, false
}

func (r *Registry) addIndexesLocked(d schema.CapabilityDescriptor) {
	for _, alias := range d.Commands {
		r.commands[NormalizeCommand(alias)] = d.ID
	}
	for _, trigger := range d.Triggers {
		normalized := NormalizeTrigger(trigger)
		if normalized == "" {
			continue
		}
		r.triggers = append(r.triggers, triggerEntry{trigger: normalized, id: d.ID})
	}
	// Longest first; equal lengths keep registration order.
	sort.SliceStable(r.triggers, func(i, j int) bool {
		return len(r.triggers[i].trigger) > len(r.triggers[j].trigger)
	})
}

func (r *Registry) dropIndexesLocked(d schema.CapabilityDescriptor) {
	for _, alias := range d.Commands {
		normalized := NormalizeCommand(alias)
		if r.commands[normalized] == d.ID {
			delete(r.commands, normalized)
		}
	}
	live := r.triggers[:0]
	for _, entry := range r.triggers {
		if entry.id != d.ID {
			live = append(live, entry)
		}
	}
	r.triggers = live
}
