// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"
	"time"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// DefaultTTL is the session lifetime when the configuration does not
// override it.
const DefaultTTL = 24 * time.Hour

// Session is one conversation's authorization state. All methods are
// safe for concurrent use; the internal mutex serializes them.
type Session struct {
	id      string
	channel string

	mu sync.Mutex

	createdAt      time.Time
	lastActivityAt time.Time
	expiresAt      time.Time

	principalID string
	role        schema.Role
	assurance   schema.Assurance

	granted schema.PermissionSet

	// Capability caches, plus the identity pair they were computed
	// under.
	visible         map[string]bool
	accessible      map[string]bool
	capabilityPerms map[string]schema.PermissionSet
	cachePrincipal  string
	cacheAssurance  schema.Assurance
	cachesComputed  bool
}

// New creates a session for a channel. The caller supplies the id
// (the store generates a random one) and the TTL-derived expiry.
func New(id, channel string, now time.Time, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Session{
		id:             id,
		channel:        channel,
		createdAt:      now,
		lastActivityAt: now,
		expiresAt:      now.Add(ttl),
		role:           schema.RoleAnonymous,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Channel returns the owning channel id.
func (s *Session) Channel() string { return s.channel }

// IsExpired reports whether the session's TTL has elapsed.
func (s *Session) IsExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !now.Before(s.expiresAt)
}

// Touch bumps the last-activity timestamp.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivityAt = now
}

// LastActivity returns the last-activity timestamp.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivityAt
}

// Identity returns the resolved principal id (empty until resolved),
// role shorthand, and assurance level.
func (s *Session) Identity() (principalID string, role schema.Role, assurance schema.Assurance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principalID, s.role, s.assurance
}

// SetIdentity records the resolved principal, role, and assurance.
// Changing either cache-key component leaves the capability caches
// stale; the caller must recompute them (the access manager's
// Elevate does both in order).
func (s *Session) SetIdentity(principalID string, role schema.Role, assurance schema.Assurance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principalID = principalID
	s.role = role
	s.assurance = assurance
}

// HasPermission reports whether the granted set covers p, literally
// or by wildcard.
func (s *Session) HasPermission(p schema.Permission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted.Has(p)
}

// GrantedPermissions returns a copy of the granted set.
func (s *Session) GrantedPermissions() schema.PermissionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted.Clone()
}

// GrantPermission adds p to the granted set.
func (s *Session) GrantPermission(p schema.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = s.granted.Merge(schema.PermissionSet{p})
}

// RevokePermission removes p from the granted set.
func (s *Session) RevokePermission(p schema.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = s.granted.Without(p)
}

// MergePermissions unions scopes into the granted set.
func (s *Session) MergePermissions(scopes schema.PermissionSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = s.granted.Merge(scopes)
}

// ReplaceCapabilityCaches installs freshly computed visibility and
// access sets, discarding any prior cache, and records the
// (principal, assurance) pair they are valid for.
func (s *Session) ReplaceCapabilityCaches(visible, accessible []string, perms map[string]schema.PermissionSet, principalID string, assurance schema.Assurance) {
	visibleSet := make(map[string]bool, len(visible))
	for _, id := range visible {
		visibleSet[id] = true
	}
	accessibleSet := make(map[string]bool, len(accessible))
	for _, id := range accessible {
		accessibleSet[id] = true
	}
	permsCopy := make(map[string]schema.PermissionSet, len(perms))
	for id, set := range perms {
		permsCopy[id] = set.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visibleSet
	s.accessible = accessibleSet
	s.capabilityPerms = permsCopy
	s.cachePrincipal = principalID
	s.cacheAssurance = assurance
	s.cachesComputed = true
}

// CachesValid reports whether the capability caches were computed for
// the session's current principal and assurance.
func (s *Session) CachesValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachesComputed &&
		s.cachePrincipal == s.principalID &&
		s.cacheAssurance == s.assurance
}

// CanSee reports whether the cached visible set contains the id.
func (s *Session) CanSee(capabilityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[capabilityID]
}

// CanAccess reports whether the cached accessible set contains the id.
func (s *Session) CanAccess(capabilityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessible[capabilityID]
}

// CachedPermissions returns the cached per-capability permission set.
func (s *Session) CachedPermissions(capabilityID string) (schema.PermissionSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.capabilityPerms[capabilityID]
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

// VisibleIDs returns the cached visible capability ids, unordered.
func (s *Session) VisibleIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.visible))
	for id := range s.visible {
		out = append(out, id)
	}
	return out
}

// AccessibleIDs returns the cached accessible capability ids,
// unordered.
func (s *Session) AccessibleIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.accessible))
	for id := range s.accessible {
		out = append(out, id)
	}
	return out
}
