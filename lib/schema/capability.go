// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"strings"
)

// CapabilityKind classifies a capability's composition.
type CapabilityKind string

const (
	// KindAtomic is a single invocable unit.
	KindAtomic CapabilityKind = "atomic"

	// KindComposite delegates to other capabilities.
	KindComposite CapabilityKind = "composite"

	// KindProxy forwards to a capability hosted elsewhere.
	KindProxy CapabilityKind = "proxy"
)

// Substrate is the execution mechanism a capability runs on. The set
// is closed: the invocation engine dispatches with an exhaustive
// switch, and an unknown substrate is a registration error, not a
// runtime fallthrough.
type Substrate string

const (
	// SubstrateSymbolic is an in-process function call.
	SubstrateSymbolic Substrate = "symbolic"

	// SubstrateLLM is a context-augmented model call.
	SubstrateLLM Substrate = "llm"

	// SubstrateShell executes through the shell runner.
	SubstrateShell Substrate = "shell"

	// SubstrateAgent delegates to a sub-agent.
	SubstrateAgent Substrate = "agent"

	// SubstrateExternal calls an external service.
	SubstrateExternal Substrate = "external-service"

	// SubstrateTransport marks channel plumbing registered for
	// discovery only. Never directly invocable.
	SubstrateTransport Substrate = "transport"
)

// KnownSubstrates lists every valid substrate, in dispatch order.
var KnownSubstrates = []Substrate{
	SubstrateSymbolic,
	SubstrateLLM,
	SubstrateShell,
	SubstrateAgent,
	SubstrateExternal,
	SubstrateTransport,
}

// CapabilityDescriptor describes one invocable unit of gateway
// functionality. Descriptors are registered once and indexed by id,
// command alias, and message trigger.
type CapabilityDescriptor struct {
	// ID is the hierarchical capability id ("legacy.command.help",
	// "skill.summarize", "tool.sdk.read"). Globally unique.
	ID string `json:"id" cbor:"1,keyasint"`

	// Name and Description are human-facing.
	Name        string `json:"name,omitempty" cbor:"2,keyasint,omitempty"`
	Description string `json:"description,omitempty" cbor:"3,keyasint,omitempty"`

	// Kind classifies composition (atomic, composite, proxy).
	Kind CapabilityKind `json:"kind" cbor:"4,keyasint"`

	// Substrate is the execution mechanism.
	Substrate Substrate `json:"substrate" cbor:"5,keyasint"`

	// Commands are the slash-command aliases that route to this
	// capability ("help", "h"). Matched exactly after normalization.
	Commands []string `json:"commands,omitempty" cbor:"6,keyasint,omitempty"`

	// Triggers are free-text fragments that route a message to this
	// capability by substring match, longest trigger first.
	Triggers []string `json:"triggers,omitempty" cbor:"7,keyasint,omitempty"`

	// RequiredPermissions must all be held by the session for the
	// invocation engine to dispatch. The policy engine and access
	// manager check them too; the engine re-checks as defense in
	// depth.
	RequiredPermissions PermissionSet `json:"required_permissions,omitempty" cbor:"8,keyasint,omitempty"`

	// Enabled gates the capability without unregistering it.
	Enabled bool `json:"enabled" cbor:"9,keyasint"`

	// Immutable capabilities reject re-registration and removal.
	// Used for the built-in legacy commands.
	Immutable bool `json:"immutable,omitempty" cbor:"10,keyasint,omitempty"`

	// PreHooks, PostHooks, and ErrorHooks name hook functions (by
	// registration name in the invocation engine) to run around
	// dispatch.
	PreHooks   []string `json:"pre_hooks,omitempty" cbor:"11,keyasint,omitempty"`
	PostHooks  []string `json:"post_hooks,omitempty" cbor:"12,keyasint,omitempty"`
	ErrorHooks []string `json:"error_hooks,omitempty" cbor:"13,keyasint,omitempty"`
}

// Validate checks the descriptor's structural invariants.
func (d CapabilityDescriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("capability id is required")
	}
	if strings.ContainsAny(d.ID, " \t\n") {
		return fmt.Errorf("capability id %q contains whitespace", d.ID)
	}
	switch d.Kind {
	case KindAtomic, KindComposite, KindProxy:
	default:
		return fmt.Errorf("capability %s: unknown kind %q", d.ID, d.Kind)
	}
	valid := false
	for _, s := range KnownSubstrates {
		if d.Substrate == s {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("capability %s: unknown substrate %q", d.ID, d.Substrate)
	}
	return nil
}

// Equal reports whether two descriptors have identical content.
// Registration uses this for idempotence: re-registering an identical
// mutable descriptor is a no-op.
func (d CapabilityDescriptor) Equal(other CapabilityDescriptor) bool {
	return d.ID == other.ID &&
		d.Name == other.Name &&
		d.Description == other.Description &&
		d.Kind == other.Kind &&
		d.Substrate == other.Substrate &&
		stringSlicesEqual(d.Commands, other.Commands) &&
		stringSlicesEqual(d.Triggers, other.Triggers) &&
		permissionsEqual(d.RequiredPermissions, other.RequiredPermissions) &&
		d.Enabled == other.Enabled &&
		d.Immutable == other.Immutable &&
		stringSlicesEqual(d.PreHooks, other.PreHooks) &&
		stringSlicesEqual(d.PostHooks, other.PostHooks) &&
		stringSlicesEqual(d.ErrorHooks, other.ErrorHooks)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func permissionsEqual(a, b PermissionSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
