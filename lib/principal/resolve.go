// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package principal

import (
	"time"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// Resolve maps a channel identity claim to a principal. Bindings are
// scanned in registration order; a binding matches when its channel
// equals the claim's channel exactly and its subject matches exactly
// or by wildcard prefix. The first usable match wins.
//
// A match against an expired or inactive binding is skipped, and a
// match whose principal is deactivated resolves to nothing; the
// binding stays registered, but a dead identity must not resolve.
//
// On a successful match the winning binding's last-used timestamp is
// updated (in memory immediately, on disk best-effort). Returns
// (principal, true) on success and (zero, false) when nothing
// matched; the caller falls back to the anonymous principal.
//
// The scan runs under the read lock so concurrent resolutions do not
// serialize; only the last-used touch takes the write lock briefly.
func (r *Registry) Resolve(channel, subject string) (schema.Principal, bool) {
	p, _, ok := r.ResolveBinding(channel, subject)
	return p, ok
}

// ResolveBinding is Resolve for callers that also need the winning
// binding, typically for its scope permissions.
func (r *Registry) ResolveBinding(channel, subject string) (schema.Principal, schema.CredentialBinding, bool) {
	now := r.clk.Now()

	r.mu.RLock()
	var winner schema.CredentialBinding
	var p schema.Principal
	var found bool
	for i := range r.bindings {
		b := &r.bindings[i]
		if b.Channel != channel {
			continue
		}
		if !b.Usable(now) {
			if b.Active && b.ExpiresAt != "" && b.MatchesSubject(subject) {
				r.logger.Warn("binding matched but is expired",
					"binding", b.ID, "channel", channel, "expires_at", b.ExpiresAt)
			}
			continue
		}
		if !b.MatchesSubject(subject) {
			continue
		}
		principal, ok := r.principals[b.PrincipalID]
		if !ok || !principal.Active {
			r.logger.Warn("binding resolves to missing or inactive principal",
				"binding", b.ID, "principal", b.PrincipalID)
			r.mu.RUnlock()
			return schema.Principal{}, schema.CredentialBinding{}, false
		}
		winner = *b
		p = principal
		found = true
		break
	}
	r.mu.RUnlock()

	if !found {
		return schema.Principal{}, schema.CredentialBinding{}, false
	}

	r.touchBinding(winner.ID, now)
	return p, winner, true
}

// touchBinding stamps a binding's last-used time. Persistence is
// best-effort: resolution already succeeded in memory and must not
// fail because the disk is unhappy.
func (r *Registry) touchBinding(id string, now time.Time) {
	r.mu.Lock()
	for i := range r.bindings {
		if r.bindings[i].ID == id {
			r.bindings[i].LastUsedAt = now.UTC().Format(time.RFC3339)
			break
		}
	}
	r.mu.Unlock()

	if err := r.saveBindings(); err != nil {
		r.logger.Warn("persisting binding last-used timestamp", "error", err)
	}
}

// ResolveAssertion resolves a channel adapter's identity assertion,
// falling back to the anonymous principal when no binding matches.
func (r *Registry) ResolveAssertion(assertion schema.ClientPrincipalAssertion) schema.Principal {
	if p, ok := r.Resolve(assertion.Channel, assertion.Subject); ok {
		return p
	}
	anonymous, _ := r.Get(schema.AnonymousPrincipalID)
	return anonymous
}
