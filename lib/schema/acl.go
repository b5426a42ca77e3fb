// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// Visibility is a capability's listing tier. Visibility controls what
// a caller can discover; the role→permission matrix controls what the
// caller can do. Protected is the one tier where the two diverge: a
// protected capability is never listed, but stays directly invocable
// for callers that already know its id and pass the permission check.
type Visibility string

const (
	// VisibilityPublic is visible to everyone including anonymous.
	VisibilityPublic Visibility = "public"

	// VisibilityListed is visible to any non-anonymous role.
	VisibilityListed Visibility = "listed"

	// VisibilityProtected is never listed, but directly invocable.
	VisibilityProtected Visibility = "protected"

	// VisibilityPrivate is visible only to internal callers and
	// admin/system.
	VisibilityPrivate Visibility = "private"

	// VisibilityAdmin is visible only to admin/system.
	VisibilityAdmin Visibility = "admin"
)

// RoleGrant is one row of an ACL's role→permission matrix.
type RoleGrant struct {
	// Role the row applies to. RoleWildcard matches any caller role
	// not matched by an exact row.
	Role Role `json:"role" cbor:"1,keyasint"`

	// Permissions granted to the role.
	Permissions PermissionSet `json:"permissions" cbor:"2,keyasint"`

	// MinAssurance is this row's own assurance floor. A caller in the
	// role but below the floor gets nothing from this row.
	MinAssurance Assurance `json:"min_assurance,omitempty" cbor:"3,keyasint,omitempty"`
}

// CapabilityACL is the access control entry for one capability id.
// Every capability has one: explicit entries come from
// capability_acls.json, and the ACL registry synthesizes a
// deny-by-default entry for any id without one.
type CapabilityACL struct {
	// CapabilityID the entry governs.
	CapabilityID string `json:"capability_id" cbor:"1,keyasint"`

	// Visibility tier for listing.
	Visibility Visibility `json:"visibility" cbor:"2,keyasint"`

	// Grants is the role→permission matrix, scanned in order for an
	// exact role match, then for a wildcard row.
	Grants []RoleGrant `json:"grants,omitempty" cbor:"3,keyasint,omitempty"`

	// DenyRoles are roles denied unconditionally. Deny wins over any
	// grant, including the admin bypass at the ACL layer.
	DenyRoles []Role `json:"deny_roles,omitempty" cbor:"4,keyasint,omitempty"`

	// MinAssurance is the floor for any access at all. Checked before
	// the role matrix.
	MinAssurance Assurance `json:"min_assurance,omitempty" cbor:"5,keyasint,omitempty"`

	// DefaultPermissions apply to roles with no matching grant row.
	// Empty means deny.
	DefaultPermissions PermissionSet `json:"default_permissions,omitempty" cbor:"6,keyasint,omitempty"`

	// Synthesized is true for entries the registry derived from the
	// id pattern rather than loaded from configuration. Synthesized
	// entries are not persisted.
	Synthesized bool `json:"-" cbor:"-"`
}

// DeniesRole reports whether role is on the explicit deny list.
func (a CapabilityACL) DeniesRole(role Role) bool {
	for _, denied := range a.DenyRoles {
		if denied == role {
			return true
		}
	}
	return false
}
