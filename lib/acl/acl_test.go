// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"path/filepath"
	"testing"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

func TestSynthesizeInternalNamespaces(t *testing.T) {
	for _, id := range []string{
		"core.router",
		"internal.scheduler",
		"tool.sdk.read",
		"mcp.filesystem.list",
		"skill.summarize",
		"completely.unknown.thing",
		"noprefix",
	} {
		a := SynthesizeDefault(id)
		if a.Visibility != schema.VisibilityPrivate {
			t.Errorf("%s: visibility = %s, want private", id, a.Visibility)
		}
		if a.MinAssurance != schema.AssuranceHigh {
			t.Errorf("%s: min assurance = %s, want high", id, a.MinAssurance)
		}
		if len(a.DefaultPermissions) != 0 {
			t.Errorf("%s: default permissions = %v, want none", id, a.DefaultPermissions)
		}
		if !a.Synthesized {
			t.Errorf("%s: not marked synthesized", id)
		}
	}
}

func TestSynthesizeExposedNamespaces(t *testing.T) {
	tests := []struct {
		id            string
		wantAssurance schema.Assurance
	}{
		{"exposed.skill.summarize", schema.AssuranceMedium},
		{"exposed.subagent.researcher", schema.AssuranceMedium},
		{"exposed.command.status", schema.AssuranceLow},
	}
	for _, tt := range tests {
		a := SynthesizeDefault(tt.id)
		if a.Visibility != schema.VisibilityListed {
			t.Errorf("%s: visibility = %s, want listed", tt.id, a.Visibility)
		}
		if a.MinAssurance != tt.wantAssurance {
			t.Errorf("%s: min assurance = %s, want %s", tt.id, a.MinAssurance, tt.wantAssurance)
		}
		// List-only: the capability is discoverable but not
		// executable without an explicit grant.
		if len(a.DefaultPermissions) != 1 || a.DefaultPermissions[0] != schema.PermissionList {
			t.Errorf("%s: default permissions = %v, want [list]", tt.id, a.DefaultPermissions)
		}
	}
}

func TestSynthesizeLegacyCommands(t *testing.T) {
	for _, name := range []string{"help", "about", "version", "login", "startSession"} {
		a := SynthesizeDefault("legacy.command." + name)
		if a.Visibility != schema.VisibilityPublic {
			t.Errorf("legacy.command.%s: visibility = %s, want public", name, a.Visibility)
		}
		if !a.DefaultPermissions.Has(schema.PermissionUse) {
			t.Errorf("legacy.command.%s: use permission not granted", name)
		}
		if a.MinAssurance != schema.AssuranceNone {
			t.Errorf("legacy.command.%s: min assurance = %s", name, a.MinAssurance)
		}
	}

	// Every other legacy command is admin-only at high assurance.
	a := SynthesizeDefault("legacy.command.configure")
	if a.Visibility != schema.VisibilityAdmin {
		t.Errorf("configure: visibility = %s, want admin", a.Visibility)
	}
	if a.MinAssurance != schema.AssuranceHigh {
		t.Errorf("configure: min assurance = %s, want high", a.MinAssurance)
	}
	if len(a.DefaultPermissions) != 0 {
		t.Errorf("configure: default permissions = %v", a.DefaultPermissions)
	}
}

// Deny-by-default: no unmatched id comes out public, and nothing but
// admin/system gets permissions from a non-public synthesis.
func TestSynthesizeDenyByDefault(t *testing.T) {
	ids := []string{
		"core.x", "internal.y", "tool.z", "mcp.w", "skill.v",
		"legacy.command.reboot", "exposed.skill.a", "mystery.id", "a.b.c.d",
	}
	for _, id := range ids {
		a := SynthesizeDefault(id)
		if a.Visibility == schema.VisibilityPublic {
			t.Errorf("%s synthesized public", id)
		}
		for _, role := range []schema.Role{"member", "operator", schema.RoleAnonymous, schema.RoleService} {
			perms := ResolvePermissions(a, role, schema.AssuranceCryptographic)
			for _, p := range perms {
				if p != schema.PermissionList {
					t.Errorf("%s grants %s to role %s by default", id, p, role)
				}
			}
		}
	}
}

func restrictiveACL() schema.CapabilityACL {
	return schema.CapabilityACL{
		CapabilityID: "tool.sdk.write",
		Visibility:   schema.VisibilityListed,
		MinAssurance: schema.AssuranceLow,
		Grants: []schema.RoleGrant{
			{Role: "operator", Permissions: schema.PermissionSet{schema.PermissionRead, schema.PermissionWrite}, MinAssurance: schema.AssuranceMedium},
			{Role: schema.RoleWildcard, Permissions: schema.PermissionSet{schema.PermissionRead}, MinAssurance: schema.AssuranceLow},
		},
		DenyRoles:          []schema.Role{"contractor"},
		DefaultPermissions: schema.PermissionSet{schema.PermissionList},
	}
}

func TestResolvePermissions(t *testing.T) {
	a := restrictiveACL()
	tests := []struct {
		name      string
		role      schema.Role
		assurance schema.Assurance
		want      []schema.Permission
	}{
		{"explicit deny wins", "contractor", schema.AssuranceCryptographic, nil},
		{"below global floor", "operator", schema.AssuranceNone, nil},
		{"role row at its floor", "operator", schema.AssuranceMedium, []schema.Permission{schema.PermissionRead, schema.PermissionWrite}},
		{"role row above its floor", "operator", schema.AssuranceHigh, []schema.Permission{schema.PermissionRead, schema.PermissionWrite}},
		{"role row below its floor", "operator", schema.AssuranceLow, nil},
		{"wildcard row", "member", schema.AssuranceLow, []schema.Permission{schema.PermissionRead}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePermissions(a, tt.role, tt.assurance)
			if len(got) != len(tt.want) {
				t.Fatalf("permissions = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("permissions = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestResolvePermissionsDefaultFallback(t *testing.T) {
	a := schema.CapabilityACL{
		CapabilityID:       "exposed.command.status",
		Visibility:         schema.VisibilityListed,
		DefaultPermissions: schema.PermissionSet{schema.PermissionList},
	}
	got := ResolvePermissions(a, "member", schema.AssuranceLow)
	if len(got) != 1 || got[0] != schema.PermissionList {
		t.Errorf("default fallback = %v", got)
	}
}

// Assurance ranking monotonicity over a role row requiring medium.
func TestResolvePermissionsAssuranceMonotonic(t *testing.T) {
	a := restrictiveACL()
	if perms := ResolvePermissions(a, "operator", schema.AssuranceLow); len(perms) != 0 {
		t.Errorf("low assurance granted %v", perms)
	}
	if perms := ResolvePermissions(a, "operator", schema.AssuranceHigh); !perms.Has(schema.PermissionWrite) {
		t.Errorf("high assurance denied write: %v", perms)
	}
}

func TestVisibleTo(t *testing.T) {
	tests := []struct {
		visibility schema.Visibility
		role       schema.Role
		want       bool
	}{
		{schema.VisibilityPublic, schema.RoleAnonymous, true},
		{schema.VisibilityPublic, "member", true},
		{schema.VisibilityListed, schema.RoleAnonymous, false},
		{schema.VisibilityListed, "member", true},
		{schema.VisibilityAdmin, "member", false},
		{schema.VisibilityAdmin, schema.RoleAdmin, true},
		{schema.VisibilityAdmin, schema.RoleSystem, true},
		{schema.VisibilityPrivate, "member", false},
		{schema.VisibilityPrivate, schema.RoleService, true},
		{schema.VisibilityPrivate, schema.RoleAdmin, true},
		{schema.VisibilityProtected, schema.RoleAdmin, false},
		{schema.VisibilityProtected, "member", false},
		{"garbage", schema.RoleAdmin, false},
	}
	for _, tt := range tests {
		a := schema.CapabilityACL{CapabilityID: "x", Visibility: tt.visibility}
		if got := VisibleTo(a, tt.role); got != tt.want {
			t.Errorf("VisibleTo(%s, %s) = %v, want %v", tt.visibility, tt.role, got, tt.want)
		}
	}

	denied := schema.CapabilityACL{
		CapabilityID: "x",
		Visibility:   schema.VisibilityPublic,
		DenyRoles:    []schema.Role{"pariah"},
	}
	if VisibleTo(denied, "pariah") {
		t.Error("denied role sees a public capability")
	}
}

func TestRegistryGetOrDefault(t *testing.T) {
	r, err := NewRegistry(Options{})
	if err != nil {
		t.Fatal(err)
	}

	// No explicit entry: synthesized.
	a := r.GetOrDefault("skill.unregistered")
	if !a.Synthesized || a.Visibility != schema.VisibilityPrivate {
		t.Errorf("synthesized lookup = %+v", a)
	}

	explicit := restrictiveACL()
	if err := r.Register(explicit); err != nil {
		t.Fatal(err)
	}
	a = r.GetOrDefault(explicit.CapabilityID)
	if a.Synthesized || a.Visibility != schema.VisibilityListed {
		t.Errorf("explicit lookup = %+v", a)
	}

	if err := r.Delete(explicit.CapabilityID); err != nil {
		t.Fatal(err)
	}
	if a := r.GetOrDefault(explicit.CapabilityID); !a.Synthesized {
		t.Error("deleted entry did not fall back to synthesis")
	}
	if err := r.Delete("never.registered"); err == nil {
		t.Error("deleting a missing entry succeeded")
	}
}

func TestRegistryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capability_acls.json")
	r, err := NewRegistry(Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Register(restrictiveACL()); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewRegistry(Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded.Get("tool.sdk.write"); !ok {
		t.Error("persisted entry lost on reload")
	}
	if len(reloaded.List()) != 1 {
		t.Errorf("List = %+v", reloaded.List())
	}
}
