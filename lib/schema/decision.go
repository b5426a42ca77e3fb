// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Deny means the action is not permitted. Zero value: an
	// uninitialized decision denies.
	Deny Decision = iota

	// Allow means the action is permitted.
	Allow
)

// String returns "allow" or "deny".
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// MarshalText implements encoding.TextMarshaler.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Anything other
// than "allow" decodes as Deny.
func (d *Decision) UnmarshalText(text []byte) error {
	if string(text) == "allow" {
		*d = Allow
	} else {
		*d = Deny
	}
	return nil
}

// AccessDecision is the full result of an authorization check.
// Decisions are values, never errors: callers branch on the Decision
// field, and a Deny always carries a human-readable Reason. When
// assurance was the deciding factor, RequiredAssurance and
// CurrentAssurance let the channel translate the denial into an
// elevation prompt.
type AccessDecision struct {
	// Decision is Allow or Deny.
	Decision Decision `json:"decision" cbor:"1,keyasint"`

	// Permission is the permission the check was about, when a single
	// permission was checked.
	Permission Permission `json:"permission,omitempty" cbor:"2,keyasint,omitempty"`

	// Reason is the human-readable explanation. Always set on Deny.
	Reason string `json:"reason" cbor:"3,keyasint"`

	// RuleID names the policy rule that produced the decision, when
	// the policy engine decided.
	RuleID string `json:"rule_id,omitempty" cbor:"4,keyasint,omitempty"`

	// RequiredAssurance and CurrentAssurance are set when assurance
	// decided the outcome, so the caller can be told how to elevate.
	RequiredAssurance Assurance `json:"required_assurance,omitempty" cbor:"5,keyasint,omitempty"`
	CurrentAssurance  Assurance `json:"current_assurance,omitempty" cbor:"6,keyasint,omitempty"`

	// MissingPermissions lists requested permissions the caller does
	// not hold, when permissions decided the outcome.
	MissingPermissions PermissionSet `json:"missing_permissions,omitempty" cbor:"7,keyasint,omitempty"`
}

// Allowed reports whether the decision is Allow.
func (d AccessDecision) Allowed() bool { return d.Decision == Allow }

// AllowDecision builds an Allow with a reason.
func AllowDecision(reason string) AccessDecision {
	return AccessDecision{Decision: Allow, Reason: reason}
}

// DenyDecision builds a Deny with a reason.
func DenyDecision(reason string) AccessDecision {
	return AccessDecision{Decision: Deny, Reason: reason}
}
