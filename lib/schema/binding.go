// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
	"time"
)

// BindingType tags how a channel established the external subject of a
// credential binding.
type BindingType string

const (
	BindingAccount     BindingType = "account"
	BindingOAuth       BindingType = "oauth"
	BindingAPIKey      BindingType = "api-key"
	BindingPhone       BindingType = "phone"
	BindingEmail       BindingType = "email"
	BindingOSUser      BindingType = "os-user"
	BindingLocalSocket BindingType = "local-socket"
)

// WildcardMarker terminates a binding subject that matches by prefix.
// A binding with subject "local:*" on channel "cli" matches any claim
// on that channel whose subject starts with "local:".
const WildcardMarker = "*"

// CredentialBinding maps a channel-specific identity to a Principal.
// Bindings are owned by the principal registry; sessions reference the
// resolved principal, never the binding.
type CredentialBinding struct {
	// ID uniquely identifies the binding.
	ID string `json:"id" cbor:"1,keyasint"`

	// PrincipalID is the URN of the bound principal.
	PrincipalID string `json:"principal_id" cbor:"2,keyasint"`

	// Channel is the channel id the binding applies to. Matched
	// exactly, never by wildcard.
	Channel string `json:"channel" cbor:"3,keyasint"`

	// Type tags how the subject was established.
	Type BindingType `json:"type" cbor:"4,keyasint"`

	// Subject is the channel's external identity string. May end in
	// WildcardMarker for prefix matching.
	Subject string `json:"subject" cbor:"5,keyasint"`

	// Scopes are the permissions this binding grants when it resolves
	// a session. Merged into the session's granted set on elevation.
	Scopes PermissionSet `json:"scopes,omitempty" cbor:"6,keyasint,omitempty"`

	// SecretHash is the encoded argon2id hash of the binding secret,
	// for binding types that carry one (api-key, account). Empty for
	// bindings whose channel vouches for the subject (os-user,
	// local-socket).
	SecretHash string `json:"secret_hash,omitempty" cbor:"7,keyasint,omitempty"`

	// Active is false for suspended bindings. Inactive bindings never
	// match during resolution.
	Active bool `json:"active" cbor:"8,keyasint"`

	// ExpiresAt is an optional RFC 3339 expiry. An expired binding is
	// treated as no-match during resolution. Omit for permanent
	// bindings.
	ExpiresAt string `json:"expires_at,omitempty" cbor:"9,keyasint,omitempty"`

	// LastUsedAt is the RFC 3339 timestamp of the last successful
	// resolution through this binding. Maintained by the registry.
	LastUsedAt string `json:"last_used_at,omitempty" cbor:"10,keyasint,omitempty"`

	// CreatedAt is the RFC 3339 registration timestamp.
	CreatedAt string `json:"created_at,omitempty" cbor:"11,keyasint,omitempty"`
}

// Usable reports whether the binding may participate in resolution:
// active and not expired at the given instant. An unparseable expiry
// counts as expired; a corrupt timestamp must never extend access.
func (b CredentialBinding) Usable(now time.Time) bool {
	if !b.Active {
		return false
	}
	if b.ExpiresAt == "" {
		return true
	}
	expiresAt, err := time.Parse(time.RFC3339, b.ExpiresAt)
	if err != nil {
		return false
	}
	return now.Before(expiresAt)
}

// MatchesSubject reports whether a claim's subject matches this
// binding's subject. Exact equality, or prefix match when the binding
// subject ends in WildcardMarker ("local:*" matches "local:owner").
// A bare "*" subject matches every subject on the channel.
func (b CredentialBinding) MatchesSubject(subject string) bool {
	if strings.HasSuffix(b.Subject, WildcardMarker) {
		prefix := strings.TrimSuffix(b.Subject, WildcardMarker)
		return strings.HasPrefix(subject, prefix)
	}
	return b.Subject == subject
}

// ClientPrincipalAssertion is the unverified identity claim a channel
// adapter attaches to every inbound request. The core never parses
// channel-native credentials; it consumes this record as produced by
// the adapter and resolves it against the binding table.
type ClientPrincipalAssertion struct {
	// Channel is the asserting channel's id ("cli", "chat", "rest").
	Channel string `json:"channel" cbor:"1,keyasint"`

	// Subject is the channel-native identity string.
	Subject string `json:"subject" cbor:"2,keyasint"`

	// Assurance is the channel's confidence in the claim.
	Assurance Assurance `json:"assurance" cbor:"3,keyasint"`

	// Method names the authentication mechanism the channel used
	// ("os-user", "password", "token").
	Method string `json:"method,omitempty" cbor:"4,keyasint,omitempty"`

	// Timestamp is the RFC 3339 instant the channel produced the
	// assertion.
	Timestamp string `json:"timestamp,omitempty" cbor:"5,keyasint,omitempty"`

	// Metadata is the channel's open extension bag.
	Metadata map[string]string `json:"metadata,omitempty" cbor:"6,keyasint,omitempty"`
}

// Envelope is the routable request a channel adapter hands to the
// orchestrator after wrapping an inbound message.
type Envelope struct {
	// SessionID identifies the conversation. Empty on the first
	// message; the orchestrator creates a session and echoes its id.
	SessionID string `json:"session_id,omitempty" cbor:"1,keyasint,omitempty"`

	// Channel is the originating channel id.
	Channel string `json:"channel" cbor:"2,keyasint"`

	// Text is the raw message text to route.
	Text string `json:"text" cbor:"3,keyasint"`

	// CapabilityHint optionally names the destination capability,
	// bypassing command/trigger routing when set.
	CapabilityHint string `json:"capability_hint,omitempty" cbor:"4,keyasint,omitempty"`

	// Assertion is the channel's identity claim for the caller.
	Assertion ClientPrincipalAssertion `json:"assertion" cbor:"5,keyasint"`
}
