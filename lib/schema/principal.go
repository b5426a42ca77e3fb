// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"strings"
)

// Role is the shorthand a principal's role component collapses to for
// ACL and policy evaluation. Roles are free-form strings; the constants
// below are the ones the core itself gives meaning to.
type Role string

const (
	// RoleSystem is the internal service identity. Bypasses every
	// visibility and permission check.
	RoleSystem Role = "system"

	// RoleAdmin is the operator role. Sees and executes everything.
	RoleAdmin Role = "admin"

	// RoleService is the role of internal service-to-service callers.
	// Sees private capabilities but holds no implicit permissions.
	RoleService Role = "service"

	// RoleAnonymous is the role of a session with no resolved
	// principal, or of the anonymous principal itself.
	RoleAnonymous Role = "anonymous"

	// RoleWildcard in an ACL role grant matches any caller role.
	RoleWildcard Role = "*"
)

// PrincipalType classifies what kind of actor a principal represents.
type PrincipalType string

const (
	PrincipalHuman     PrincipalType = "human"
	PrincipalAgent     PrincipalType = "agent"
	PrincipalService   PrincipalType = "service"
	PrincipalSystem    PrincipalType = "system"
	PrincipalAnonymous PrincipalType = "anonymous"
)

// Well-known principal ids. Both principals always exist in a registry;
// they are seeded at construction and cannot be deactivated.
const (
	// SystemPrincipalID identifies the internal system principal used
	// for gateway-initiated operations. Holds the wildcard permission.
	SystemPrincipalID = "org:gatehouse:role:system:person:system"

	// AnonymousPrincipalID identifies the fallback principal for
	// claims no binding matches. Zero assurance, minimal permissions.
	AnonymousPrincipalID = "org:public:role:anonymous:person:anonymous"
)

// Principal is a semantic identity: who the caller is across every
// channel, as opposed to the channel-specific credential that asserted
// them. The id is the URN serialization of the org/role/person
// composite and is the stable key bindings and sessions reference.
type Principal struct {
	// ID is the URN form "org:{o}:role:{r}:person:{p}". Unique.
	ID string `json:"id" cbor:"1,keyasint"`

	// Type classifies the actor (human, agent, service, system,
	// anonymous).
	Type PrincipalType `json:"type" cbor:"2,keyasint"`

	// DisplayName is the human-facing name. Free-form.
	DisplayName string `json:"display_name,omitempty" cbor:"3,keyasint,omitempty"`

	// Active is false for logically deleted principals. Inactive
	// principals never resolve; their bindings are dead until the
	// principal is reactivated.
	Active bool `json:"active" cbor:"4,keyasint"`

	// CreatedAt and UpdatedAt are RFC 3339 timestamps maintained by
	// the registry.
	CreatedAt string `json:"created_at,omitempty" cbor:"5,keyasint,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty" cbor:"6,keyasint,omitempty"`

	// Metadata is an open extension bag. The core never reads it;
	// everything the core needs (role, assurance, scopes) is a typed
	// field somewhere, never a metadata lookup.
	Metadata map[string]string `json:"metadata,omitempty" cbor:"7,keyasint,omitempty"`
}

// PrincipalURN builds the URN form of an org/role/person composite.
// Components must be non-empty and colon-free.
func PrincipalURN(org string, role Role, person string) string {
	return fmt.Sprintf("org:%s:role:%s:person:%s", org, role, person)
}

// ParsePrincipalURN splits an id of the form
// "org:{o}:role:{r}:person:{p}" into its components.
func ParsePrincipalURN(urn string) (org string, role Role, person string, err error) {
	parts := strings.Split(urn, ":")
	if len(parts) != 6 || parts[0] != "org" || parts[2] != "role" || parts[4] != "person" {
		return "", "", "", fmt.Errorf("malformed principal URN %q (want org:{o}:role:{r}:person:{p})", urn)
	}
	if parts[1] == "" || parts[3] == "" || parts[5] == "" {
		return "", "", "", fmt.Errorf("principal URN %q has an empty component", urn)
	}
	return parts[1], Role(parts[3]), parts[5], nil
}

// Role extracts the role component of the principal's URN. Returns
// RoleAnonymous for a malformed id: an unparseable identity must never
// gain a privileged role by accident.
func (p Principal) Role() Role {
	_, role, _, err := ParsePrincipalURN(p.ID)
	if err != nil {
		return RoleAnonymous
	}
	return role
}

// IsSystem reports whether this is the well-known system principal.
func (p Principal) IsSystem() bool { return p.ID == SystemPrincipalID }

// IsAnonymous reports whether this is the well-known anonymous
// principal.
func (p Principal) IsAnonymous() bool { return p.ID == AnonymousPrincipalID }

// SystemPrincipal returns the well-known system principal record.
func SystemPrincipal() Principal {
	return Principal{
		ID:          SystemPrincipalID,
		Type:        PrincipalSystem,
		DisplayName: "Gatehouse System",
		Active:      true,
	}
}

// AnonymousPrincipal returns the well-known anonymous principal record.
func AnonymousPrincipal() Principal {
	return Principal{
		ID:          AnonymousPrincipalID,
		Type:        PrincipalAnonymous,
		DisplayName: "Anonymous",
		Active:      true,
	}
}
