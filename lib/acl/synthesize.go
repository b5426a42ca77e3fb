// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"strings"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// PublicLegacyCommands are the legacy command names that synthesize
// to public use-permission ACLs. startSession is the alias spelling of
// the login flow; both names map here because older channels still
// send it.
var PublicLegacyCommands = []string{"help", "about", "version", "login", "startSession"}

// internalPrefixes synthesize to private, admin-only entries unless
// the id is re-exported under "exposed.".
var internalPrefixes = []string{"core.", "internal.", "tool.", "mcp.", "skill."}

// fullAdminGrants is the grant matrix every restricted synthesis
// shares: admin and system get everything, nobody else gets a row.
func fullAdminGrants() []schema.RoleGrant {
	return []schema.RoleGrant{
		{Role: schema.RoleAdmin, Permissions: schema.PermissionSet{schema.PermissionWildcard}, MinAssurance: schema.AssuranceHigh},
		{Role: schema.RoleSystem, Permissions: schema.PermissionSet{schema.PermissionWildcard}},
	}
}

// SynthesizeDefault derives the ACL for a capability id with no
// explicit entry. Pure: no I/O, no registry state, same output for
// the same id, always the narrowest entry the pattern table allows.
func SynthesizeDefault(id string) schema.CapabilityACL {
	switch {
	case strings.HasPrefix(id, "exposed.skill."),
		strings.HasPrefix(id, "exposed.subagent."):
		// Re-exported agent functionality: discoverable by any
		// authenticated role, list-only until an explicit grant, and
		// gated at medium assurance because these execute model or
		// sub-agent actions once granted.
		return schema.CapabilityACL{
			CapabilityID:       id,
			Visibility:         schema.VisibilityListed,
			Grants:             fullAdminGrants(),
			MinAssurance:       schema.AssuranceMedium,
			DefaultPermissions: schema.PermissionSet{schema.PermissionList},
			Synthesized:        true,
		}

	case strings.HasPrefix(id, "exposed.command."):
		// Re-exported commands are the mildest exposure: low
		// assurance suffices to see them listed.
		return schema.CapabilityACL{
			CapabilityID:       id,
			Visibility:         schema.VisibilityListed,
			Grants:             fullAdminGrants(),
			MinAssurance:       schema.AssuranceLow,
			DefaultPermissions: schema.PermissionSet{schema.PermissionList},
			Synthesized:        true,
		}

	case strings.HasPrefix(id, "legacy.command."):
		name := strings.TrimPrefix(id, "legacy.command.")
		for _, public := range PublicLegacyCommands {
			if name == public {
				return schema.CapabilityACL{
					CapabilityID:       id,
					Visibility:         schema.VisibilityPublic,
					DefaultPermissions: schema.PermissionSet{schema.PermissionUse},
					Synthesized:        true,
				}
			}
		}
		// Every other legacy command is an operator surface.
		return schema.CapabilityACL{
			CapabilityID: id,
			Visibility:   schema.VisibilityAdmin,
			Grants:       fullAdminGrants(),
			MinAssurance: schema.AssuranceHigh,
			Synthesized:  true,
		}

	case hasInternalPrefix(id):
		return privateDefault(id)

	default:
		// Unrecognized namespace: the narrowest entry there is.
		return privateDefault(id)
	}
}

func hasInternalPrefix(id string) bool {
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

func privateDefault(id string) schema.CapabilityACL {
	return schema.CapabilityACL{
		CapabilityID: id,
		Visibility:   schema.VisibilityPrivate,
		Grants:       fullAdminGrants(),
		MinAssurance: schema.AssuranceHigh,
		Synthesized:  true,
	}
}
