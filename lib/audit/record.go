// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"time"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// Record is one authorization decision. Records are immutable once
// emitted; sinks never modify them.
type Record struct {
	// Timestamp is when the decision was made, from the gateway's
	// clock.
	Timestamp time.Time `json:"timestamp" cbor:"1,keyasint"`

	// Actor is the resolved principal id, or the anonymous principal
	// id when no binding matched.
	Actor string `json:"actor" cbor:"2,keyasint"`

	// SessionID ties the decision to a conversation.
	SessionID string `json:"session_id,omitempty" cbor:"3,keyasint,omitempty"`

	// Channel names the transport the request arrived on.
	Channel string `json:"channel,omitempty" cbor:"4,keyasint,omitempty"`

	// CapabilityID is the capability the decision was about. Empty for
	// decisions that precede routing (for example an unroutable
	// message).
	CapabilityID string `json:"capability_id,omitempty" cbor:"5,keyasint,omitempty"`

	// Permission is the permission checked, when a single permission
	// decided the outcome.
	Permission schema.Permission `json:"permission,omitempty" cbor:"6,keyasint,omitempty"`

	// Decision is allow or deny.
	Decision schema.Decision `json:"decision" cbor:"7,keyasint"`

	// Reason is the human-readable explanation carried over from the
	// AccessDecision.
	Reason string `json:"reason" cbor:"8,keyasint"`

	// RuleID names the policy rule when the policy engine decided.
	RuleID string `json:"rule_id,omitempty" cbor:"9,keyasint,omitempty"`

	// Assurance is the session's assurance level at decision time.
	Assurance schema.Assurance `json:"assurance" cbor:"10,keyasint"`
}
