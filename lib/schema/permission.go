// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "slices"

// Permission names one action class a caller may be granted on a
// capability. Permissions are flat strings, not hierarchical: the only
// special value is PermissionWildcard, which stands for every
// permission at once.
type Permission string

const (
	// PermissionRead allows reading capability output and state.
	PermissionRead Permission = "read"

	// PermissionWrite allows mutating state through a capability.
	PermissionWrite Permission = "write"

	// PermissionExecute allows invoking a capability's primary action.
	PermissionExecute Permission = "execute"

	// PermissionQuery allows structured queries (search, lookups).
	PermissionQuery Permission = "query"

	// PermissionChat allows free-text conversational use.
	PermissionChat Permission = "chat"

	// PermissionAdmin allows administrative operations: registering
	// principals, editing ACLs, toggling enforcement.
	PermissionAdmin Permission = "admin"

	// PermissionUse allows invoking a specific public command. Granted
	// by legacy command ACLs to every role including anonymous.
	PermissionUse Permission = "use"

	// PermissionList allows seeing that a capability exists without
	// being able to invoke it.
	PermissionList Permission = "list"

	// PermissionWildcard stands for all permissions. A granted set
	// containing the wildcard satisfies any requested permission.
	PermissionWildcard Permission = "*"
)

// PermissionSet is an ordered collection of permissions. Order is
// preserved for stable serialization; membership checks ignore it.
type PermissionSet []Permission

// Has reports whether the set grants p, either literally or through
// the wildcard.
func (s PermissionSet) Has(p Permission) bool {
	for _, granted := range s {
		if granted == p || granted == PermissionWildcard {
			return true
		}
	}
	return false
}

// HasAll reports whether every permission in required is granted.
// An empty required set is trivially satisfied.
func (s PermissionSet) HasAll(required PermissionSet) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Missing returns the permissions in required that the set does not
// grant. Used to build actionable deny reasons.
func (s PermissionSet) Missing(required PermissionSet) PermissionSet {
	var missing PermissionSet
	for _, p := range required {
		if !s.Has(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// Merge returns a new set containing the union of s and other,
// preserving first-seen order. Neither input is modified.
func (s PermissionSet) Merge(other PermissionSet) PermissionSet {
	merged := slices.Clone(s)
	for _, p := range other {
		if !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	return merged
}

// Without returns a new set with p removed.
func (s PermissionSet) Without(p Permission) PermissionSet {
	var out PermissionSet
	for _, granted := range s {
		if granted != p {
			out = append(out, granted)
		}
	}
	return out
}

// Clone returns an independent copy of the set.
func (s PermissionSet) Clone() PermissionSet {
	return slices.Clone(s)
}
