// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package principal

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-dev/gatehouse/lib/clock"
	"github.com/gatehouse-dev/gatehouse/lib/docstore"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// Options configures a Registry.
type Options struct {
	// PrincipalsPath and BindingsPath locate the persisted documents.
	// Empty paths disable persistence (in-memory registry, used by
	// tests and the offline CLI).
	PrincipalsPath string
	BindingsPath   string

	// Clock supplies time for binding expiry and last-used stamps.
	// Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives operational messages. Nil means discard.
	Logger *slog.Logger
}

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	// Type restricts to one principal type when non-empty.
	Type schema.PrincipalType

	// ActiveOnly drops deactivated principals.
	ActiveOnly bool
}

// Registry stores principals and credential bindings and resolves
// channel identity claims. Safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// principals is keyed by URN id. order preserves registration
	// order for stable List output.
	principals map[string]schema.Principal
	order      []string

	// bindings stays in registration order: resolution is
	// first-match-wins over this slice.
	bindings []schema.CredentialBinding

	principalsPath string
	bindingsPath   string
	clk            clock.Clock
	logger         *slog.Logger
}

// NewRegistry creates a registry seeded with the two well-known
// principals and, when paths are configured, loads the persisted
// documents. A malformed document is reported but leaves that side of
// the registry empty (except the well-known seeds) instead of failing
// construction.
func NewRegistry(opts Options) (*Registry, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{
		principals:     make(map[string]schema.Principal),
		principalsPath: opts.PrincipalsPath,
		bindingsPath:   opts.BindingsPath,
		clk:            clk,
		logger:         logger,
	}
	r.seedWellKnown()
	if err := r.Reload(); err != nil {
		return r, err
	}
	return r, nil
}

func (r *Registry) seedWellKnown() {
	for _, p := range []schema.Principal{schema.SystemPrincipal(), schema.AnonymousPrincipal()} {
		if _, ok := r.principals[p.ID]; !ok {
			r.principals[p.ID] = p
			r.order = append(r.order, p.ID)
		}
	}
}

// Reload replaces in-memory state from the persisted documents. The
// swap happens under the write lock, so in-flight resolutions finish
// against the old snapshot and later ones see the new one. Returns a
// *docstore.LoadError for a malformed document; the corresponding
// table is left empty apart from the well-known principals.
func (r *Registry) Reload() error {
	var principals []schema.Principal
	var bindings []schema.CredentialBinding
	var loadErr error

	if r.principalsPath != "" {
		if _, err := docstore.Load(r.principalsPath, &principals); err != nil {
			loadErr = err
			principals = nil
		}
	}
	if r.bindingsPath != "" {
		if _, err := docstore.Load(r.bindingsPath, &bindings); err != nil {
			if loadErr == nil {
				loadErr = err
			}
			bindings = nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.principals = make(map[string]schema.Principal, len(principals)+2)
	r.order = r.order[:0]
	for _, p := range principals {
		if _, _, _, err := schema.ParsePrincipalURN(p.ID); err != nil {
			r.logger.Warn("skipping principal with malformed id", "id", p.ID)
			continue
		}
		if _, dup := r.principals[p.ID]; dup {
			r.logger.Warn("skipping duplicate principal", "id", p.ID)
			continue
		}
		r.principals[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	r.seedWellKnown()
	r.bindings = bindings
	return loadErr
}

// Register adds a principal. The id must be a well-formed URN and must
// not already exist. The registry stamps CreatedAt/UpdatedAt.
func (r *Registry) Register(p schema.Principal) error {
	if _, _, _, err := schema.ParsePrincipalURN(p.ID); err != nil {
		return err
	}
	if p.Type == "" {
		return fmt.Errorf("principal %s: type is required", p.ID)
	}

	r.mu.Lock()
	if _, exists := r.principals[p.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("principal %s already registered", p.ID)
	}
	now := r.clk.Now().UTC().Format(time.RFC3339)
	p.CreatedAt = now
	p.UpdatedAt = now
	r.principals[p.ID] = p
	r.order = append(r.order, p.ID)
	r.mu.Unlock()

	return r.savePrincipals()
}

// Get returns the principal with the given id.
func (r *Registry) Get(id string) (schema.Principal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.principals[id]
	return p, ok
}

// List returns principals matching the filter, in registration order.
func (r *Registry) List(filter Filter) []schema.Principal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []schema.Principal
	for _, id := range r.order {
		p := r.principals[id]
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Update replaces a principal's mutable fields (display name, type,
// active flag, metadata) and bumps UpdatedAt. The id and CreatedAt
// are preserved. Well-known principals cannot be deactivated.
func (r *Registry) Update(p schema.Principal) error {
	r.mu.Lock()
	existing, ok := r.principals[p.ID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("principal %s not found", p.ID)
	}
	if !p.Active && (p.ID == schema.SystemPrincipalID || p.ID == schema.AnonymousPrincipalID) {
		r.mu.Unlock()
		return fmt.Errorf("principal %s is well-known and cannot be deactivated", p.ID)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.clk.Now().UTC().Format(time.RFC3339)
	r.principals[p.ID] = p
	r.mu.Unlock()

	return r.savePrincipals()
}

// Deactivate logically deletes a principal. Its bindings stay
// registered but stop resolving, because Resolve checks the
// principal's active flag after a binding match.
func (r *Registry) Deactivate(id string) error {
	r.mu.Lock()
	p, ok := r.principals[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("principal %s not found", id)
	}
	if id == schema.SystemPrincipalID || id == schema.AnonymousPrincipalID {
		r.mu.Unlock()
		return fmt.Errorf("principal %s is well-known and cannot be deactivated", id)
	}
	p.Active = false
	p.UpdatedAt = r.clk.Now().UTC().Format(time.RFC3339)
	r.principals[id] = p
	r.mu.Unlock()

	return r.savePrincipals()
}

// RegisterBinding appends a credential binding. The target principal
// must exist. An empty id is assigned one. Binding order matters:
// resolution is first-match-wins in registration order.
func (r *Registry) RegisterBinding(b schema.CredentialBinding) error {
	if b.PrincipalID == "" || b.Channel == "" || b.Subject == "" {
		return fmt.Errorf("binding requires principal_id, channel, and subject")
	}

	r.mu.Lock()
	if _, ok := r.principals[b.PrincipalID]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("binding targets unknown principal %s", b.PrincipalID)
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	for _, existing := range r.bindings {
		if existing.ID == b.ID {
			r.mu.Unlock()
			return fmt.Errorf("binding %s already registered", b.ID)
		}
	}
	if b.CreatedAt == "" {
		b.CreatedAt = r.clk.Now().UTC().Format(time.RFC3339)
	}
	r.bindings = append(r.bindings, b)
	r.mu.Unlock()

	return r.saveBindings()
}

// ListBindings returns bindings in registration order, optionally
// narrowed by principal id and/or channel (empty string matches all).
func (r *Registry) ListBindings(principalID, channel string) []schema.CredentialBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []schema.CredentialBinding
	for _, b := range r.bindings {
		if principalID != "" && b.PrincipalID != principalID {
			continue
		}
		if channel != "" && b.Channel != channel {
			continue
		}
		out = append(out, b)
	}
	return out
}

// DeleteBinding removes a binding by id.
func (r *Registry) DeleteBinding(id string) error {
	r.mu.Lock()
	index := -1
	for i, b := range r.bindings {
		if b.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		r.mu.Unlock()
		return fmt.Errorf("binding %s not found", id)
	}
	r.bindings = append(r.bindings[:index], r.bindings[index+1:]...)
	r.mu.Unlock()

	return r.saveBindings()
}

// savePrincipals and saveBindings persist best-effort: the in-memory
// mutation has already happened, and a disk failure is reported to the
// administrative caller without being rolled back.
func (r *Registry) savePrincipals() error {
	if r.principalsPath == "" {
		return nil
	}
	r.mu.RLock()
	out := make([]schema.Principal, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.principals[id])
	}
	r.mu.RUnlock()
	if err := docstore.Save(r.principalsPath, out); err != nil {
		return fmt.Errorf("persisting principals: %w", err)
	}
	return nil
}

func (r *Registry) saveBindings() error {
	if r.bindingsPath == "" {
		return nil
	}
	r.mu.RLock()
	out := make([]schema.CredentialBinding, len(r.bindings))
	copy(out, r.bindings)
	r.mu.RUnlock()
	if err := docstore.Save(r.bindingsPath, out); err != nil {
		return fmt.Errorf("persisting bindings: %w", err)
	}
	return nil
}
