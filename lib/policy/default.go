// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "github.com/gatehouse-dev/gatehouse/lib/schema"

// PublicCapabilities are the capability ids an anonymous caller may
// always reach: enough surface to discover the gateway and log in,
// nothing more. The startSession command is an alias of the login
// capability, so it needs no id of its own here.
var PublicCapabilities = []string{
	"legacy.command.help",
	"legacy.command.about",
	"legacy.command.version",
	"legacy.command.login",
}

func isPublicCapability(id string) bool {
	for _, public := range PublicCapabilities {
		if id == public {
			return true
		}
	}
	return false
}

// privileged permissions an anonymous caller can never request.
var anonymousForbidden = schema.PermissionSet{
	schema.PermissionAdmin,
	schema.PermissionWrite,
	schema.PermissionExecute,
}

// conversational permissions any authenticated principal holds
// implicitly.
var conversational = schema.PermissionSet{
	schema.PermissionRead,
	schema.PermissionQuery,
	schema.PermissionChat,
}

// Default returns the shipped policy. Priority order:
//
//	10  system principal            → allow
//	20  admin role                  → allow
//	30  anonymous, public target    → allow
//	40  anonymous wants privilege   → deny
//	50  admin perm below high       → deny
//	60  write perm below medium     → deny
//	70  granted covers requested    → allow
//	80  authenticated, read-only    → allow
//	max catch-all                   → deny
func Default() *Policy {
	rules := []Rule{
		{
			ID:          "system-allow",
			Description: "the system principal may do anything",
			Priority:    10,
			Predicate: func(ctx Context) bool {
				return ctx.Role == schema.RoleSystem || ctx.Principal.IsSystem()
			},
			Decision: schema.Allow,
			Reason:   "system principal",
		},
		{
			ID:          "admin-allow",
			Description: "the admin role may do anything",
			Priority:    20,
			Predicate:   func(ctx Context) bool { return ctx.Role == schema.RoleAdmin },
			Decision:    schema.Allow,
			Reason:      "admin role",
		},
		{
			ID:          "anonymous-public-allow",
			Description: "anonymous callers may reach the public commands",
			Priority:    30,
			Predicate: func(ctx Context) bool {
				return ctx.Role == schema.RoleAnonymous && isPublicCapability(ctx.CapabilityID)
			},
			Decision: schema.Allow,
			Reason:   "public capability",
		},
		{
			ID:          "anonymous-privileged-deny",
			Description: "anonymous callers may not request privileged permissions",
			Priority:    40,
			Predicate: func(ctx Context) bool {
				if ctx.Role != schema.RoleAnonymous {
					return false
				}
				for _, p := range ctx.RequiredPermissions {
					if anonymousForbidden.Has(p) {
						return true
					}
				}
				return false
			},
			Decision: schema.Deny,
			Reason:   "anonymous callers may not hold admin, write, or execute permissions",
			Annotate: func(ctx Context, d *schema.AccessDecision) {
				d.MissingPermissions = ctx.GrantedPermissions.Missing(ctx.RequiredPermissions)
			},
		},
		{
			ID:          "admin-assurance-deny",
			Description: "admin permission requires high assurance",
			Priority:    50,
			Predicate: func(ctx Context) bool {
				return ctx.RequiredPermissions.Has(schema.PermissionAdmin) &&
					!ctx.Assurance.Meets(schema.AssuranceHigh)
			},
			Decision: schema.Deny,
			Reason:   "admin permission requires high assurance",
			Annotate: func(ctx Context, d *schema.AccessDecision) {
				d.Permission = schema.PermissionAdmin
				d.RequiredAssurance = schema.AssuranceHigh
				d.CurrentAssurance = ctx.Assurance
			},
		},
		{
			ID:          "write-assurance-deny",
			Description: "write permission requires medium assurance",
			Priority:    60,
			Predicate: func(ctx Context) bool {
				return ctx.RequiredPermissions.Has(schema.PermissionWrite) &&
					!ctx.Assurance.Meets(schema.AssuranceMedium)
			},
			Decision: schema.Deny,
			Reason:   "write permission requires medium assurance",
			Annotate: func(ctx Context, d *schema.AccessDecision) {
				d.Permission = schema.PermissionWrite
				d.RequiredAssurance = schema.AssuranceMedium
				d.CurrentAssurance = ctx.Assurance
			},
		},
		{
			ID:          "granted-superset-allow",
			Description: "a caller holding every requested permission is allowed",
			Priority:    70,
			Predicate: func(ctx Context) bool {
				return ctx.GrantedPermissions.HasAll(ctx.RequiredPermissions)
			},
			Decision: schema.Allow,
			Reason:   "granted permissions cover the request",
		},
		{
			ID:          "authenticated-read-allow",
			Description: "authenticated principals get conversational access",
			Priority:    80,
			Predicate: func(ctx Context) bool {
				if ctx.Role == schema.RoleAnonymous || ctx.Principal.IsAnonymous() || ctx.Principal.ID == "" {
					return false
				}
				if len(ctx.RequiredPermissions) == 0 {
					return false
				}
				for _, p := range ctx.RequiredPermissions {
					if !conversational.Has(p) {
						return false
					}
				}
				return true
			},
			Decision: schema.Allow,
			Reason:   "authenticated caller requesting conversational permissions only",
		},
	}

	policy, err := New(rules...)
	if err != nil {
		// The default rule set is static; a construction failure is a
		// programming error.
		panic("policy: building default policy: " + err.Error())
	}
	return policy
}
