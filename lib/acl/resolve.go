// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import "github.com/gatehouse-dev/gatehouse/lib/schema"

// ResolvePermissions computes the permission set a role at a given
// assurance level holds under an ACL. Check order is fixed:
//
//  1. Explicit deny list; deny wins unconditionally, even for admin.
//  2. The ACL's global assurance floor; below it, nothing.
//  3. The role matrix: an exact role row, else a wildcard row. A row
//     only applies when the caller meets the row's own assurance
//     floor; a row that exists but is assurance-gated also blocks the
//     fall-through to the default set, because the author of the row
//     said "this role gets these permissions at this assurance", not
//     "this role gets the defaults when under-assured".
//  4. The ACL's default permission set.
func ResolvePermissions(a schema.CapabilityACL, role schema.Role, assurance schema.Assurance) schema.PermissionSet {
	if a.DeniesRole(role) {
		return nil
	}
	if !assurance.Meets(a.MinAssurance) {
		return nil
	}

	var wildcard *schema.RoleGrant
	for i := range a.Grants {
		grant := &a.Grants[i]
		if grant.Role == role {
			if !assurance.Meets(grant.MinAssurance) {
				return nil
			}
			return grant.Permissions.Clone()
		}
		if grant.Role == schema.RoleWildcard && wildcard == nil {
			wildcard = grant
		}
	}
	if wildcard != nil {
		if !assurance.Meets(wildcard.MinAssurance) {
			return nil
		}
		return wildcard.Permissions.Clone()
	}
	return a.DefaultPermissions.Clone()
}

// VisibleTo reports whether a role sees the capability in listings.
//
//	public    → everyone
//	listed    → any non-anonymous role
//	admin     → admin and system only
//	private   → internal (service) callers, admin, and system
//	protected → never listed (direct invocation may still succeed)
//
// An explicitly denied role sees nothing regardless of tier.
func VisibleTo(a schema.CapabilityACL, role schema.Role) bool {
	if a.DeniesRole(role) {
		return false
	}
	switch a.Visibility {
	case schema.VisibilityPublic:
		return true
	case schema.VisibilityListed:
		return role != schema.RoleAnonymous
	case schema.VisibilityAdmin:
		return role == schema.RoleAdmin || role == schema.RoleSystem
	case schema.VisibilityPrivate:
		return role == schema.RoleService || role == schema.RoleAdmin || role == schema.RoleSystem
	case schema.VisibilityProtected:
		return false
	default:
		// Unknown tier fails closed.
		return false
	}
}
