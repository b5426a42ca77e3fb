// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

func allowRule(id string, priority int) Rule {
	return Rule{
		ID:        id,
		Priority:  priority,
		Predicate: func(Context) bool { return true },
		Decision:  schema.Allow,
		Reason:    "test allow",
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Rule{Priority: 1, Predicate: func(Context) bool { return true }}); err == nil {
		t.Error("empty rule id accepted")
	}
	if _, err := New(allowRule("dup", 1), allowRule("dup", 2)); err == nil {
		t.Error("duplicate rule id accepted")
	}
	if _, err := New(Rule{ID: "no-predicate", Priority: 1}); err == nil {
		t.Error("rule without predicate accepted")
	}
	if _, err := New(allowRule(CatchAllRuleID, 1)); err == nil {
		t.Error("reserved catch-all id accepted")
	}
}

func TestCatchAllAlwaysPresent(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatal(err)
	}
	rules := p.Rules()
	if len(rules) != 1 || rules[0].ID != CatchAllRuleID {
		t.Fatalf("empty policy rules = %+v", rules)
	}
	decision := p.Evaluate(Context{})
	if decision.Allowed() {
		t.Error("empty policy allowed a request")
	}
	if decision.RuleID != CatchAllRuleID {
		t.Errorf("decision rule = %s, want catch-all", decision.RuleID)
	}
}

func TestFirstMatchWins(t *testing.T) {
	p, err := New(allowRule("first", 1))
	if err != nil {
		t.Fatal(err)
	}
	// Both the priority-1 allow and the catch-all deny match; the
	// priority-1 rule must decide and be cited.
	decision := p.Evaluate(Context{})
	if !decision.Allowed() {
		t.Fatal("first-match allow lost to the catch-all")
	}
	if decision.RuleID != "first" {
		t.Errorf("decision cites %s, want first", decision.RuleID)
	}
}

func TestEqualPriorityKeepsRegistrationOrder(t *testing.T) {
	deny := Rule{
		ID:        "deny-first",
		Priority:  5,
		Predicate: func(Context) bool { return true },
		Decision:  schema.Deny,
		Reason:    "registered first",
	}
	p, err := New(deny, allowRule("allow-second", 5))
	if err != nil {
		t.Fatal(err)
	}
	decision := p.Evaluate(Context{})
	if decision.Allowed() || decision.RuleID != "deny-first" {
		t.Errorf("equal-priority tiebreak broke registration order: %+v", decision)
	}
}

func defaultContext(mutate func(*Context)) Context {
	ctx := Context{
		Principal:           schema.AnonymousPrincipal(),
		Role:                schema.RoleAnonymous,
		Assurance:           schema.AssuranceNone,
		CapabilityID:        "legacy.command.configure",
		RequiredPermissions: schema.PermissionSet{schema.PermissionAdmin},
		Channel:             "cli",
	}
	if mutate != nil {
		mutate(&ctx)
	}
	return ctx
}

func TestDefaultPolicyRules(t *testing.T) {
	p := Default()
	tests := []struct {
		name     string
		ctx      Context
		want     schema.Decision
		wantRule string
	}{
		{
			name: "system principal allowed",
			ctx: defaultContext(func(ctx *Context) {
				ctx.Principal = schema.SystemPrincipal()
				ctx.Role = schema.RoleSystem
			}),
			want:     schema.Allow,
			wantRule: "system-allow",
		},
		{
			name: "admin role allowed",
			ctx: defaultContext(func(ctx *Context) {
				ctx.Role = schema.RoleAdmin
			}),
			want:     schema.Allow,
			wantRule: "admin-allow",
		},
		{
			name: "anonymous help allowed",
			ctx: defaultContext(func(ctx *Context) {
				ctx.CapabilityID = "legacy.command.help"
				ctx.RequiredPermissions = schema.PermissionSet{schema.PermissionUse}
			}),
			want:     schema.Allow,
			wantRule: "anonymous-public-allow",
		},
		{
			name: "anonymous login allowed",
			ctx: defaultContext(func(ctx *Context) {
				ctx.CapabilityID = "legacy.command.login"
				ctx.RequiredPermissions = schema.PermissionSet{schema.PermissionUse}
			}),
			want:     schema.Allow,
			wantRule: "anonymous-public-allow",
		},
		{
			name: "anonymous execute denied",
			ctx: defaultContext(func(ctx *Context) {
				ctx.CapabilityID = "skill.summarize"
				ctx.RequiredPermissions = schema.PermissionSet{schema.PermissionExecute}
			}),
			want:     schema.Deny,
			wantRule: "anonymous-privileged-deny",
		},
		{
			name: "admin permission below high assurance denied",
			ctx: defaultContext(func(ctx *Context) {
				ctx.Principal = schema.Principal{ID: "org:acme:role:operator:person:alice", Active: true}
				ctx.Role = "operator"
				ctx.Assurance = schema.AssuranceMedium
				ctx.GrantedPermissions = schema.PermissionSet{schema.PermissionAdmin}
			}),
			want:     schema.Deny,
			wantRule: "admin-assurance-deny",
		},
		{
			name: "write permission below medium assurance denied",
			ctx: defaultContext(func(ctx *Context) {
				ctx.Principal = schema.Principal{ID: "org:acme:role:operator:person:alice", Active: true}
				ctx.Role = "operator"
				ctx.Assurance = schema.AssuranceLow
				ctx.RequiredPermissions = schema.PermissionSet{schema.PermissionWrite}
				ctx.GrantedPermissions = schema.PermissionSet{schema.PermissionWrite}
			}),
			want:     schema.Deny,
			wantRule: "write-assurance-deny",
		},
		{
			name: "granted superset allowed",
			ctx: defaultContext(func(ctx *Context) {
				ctx.Principal = schema.Principal{ID: "org:acme:role:operator:person:alice", Active: true}
				ctx.Role = "operator"
				ctx.Assurance = schema.AssuranceHigh
				ctx.GrantedPermissions = schema.PermissionSet{schema.PermissionAdmin, schema.PermissionRead}
			}),
			want:     schema.Allow,
			wantRule: "granted-superset-allow",
		},
		{
			name: "wildcard grant allowed",
			ctx: defaultContext(func(ctx *Context) {
				ctx.Principal = schema.Principal{ID: "org:acme:role:operator:person:alice", Active: true}
				ctx.Role = "operator"
				ctx.Assurance = schema.AssuranceHigh
				ctx.GrantedPermissions = schema.PermissionSet{schema.PermissionWildcard}
			}),
			want:     schema.Allow,
			wantRule: "granted-superset-allow",
		},
		{
			name: "authenticated conversational allowed",
			ctx: defaultContext(func(ctx *Context) {
				ctx.Principal = schema.Principal{ID: "org:acme:role:member:person:bob", Active: true}
				ctx.Role = "member"
				ctx.Assurance = schema.AssuranceMedium
				ctx.CapabilityID = "skill.chat"
				ctx.RequiredPermissions = schema.PermissionSet{schema.PermissionChat, schema.PermissionRead}
			}),
			want:     schema.Allow,
			wantRule: "authenticated-read-allow",
		},
		{
			name:     "anonymous admin request denied",
			ctx:      defaultContext(nil),
			want:     schema.Deny,
			wantRule: "anonymous-privileged-deny",
		},
		{
			name: "anonymous non-public command falls to catch-all",
			ctx: defaultContext(func(ctx *Context) {
				ctx.CapabilityID = "legacy.command.configure"
				ctx.RequiredPermissions = schema.PermissionSet{schema.PermissionUse}
			}),
			want:     schema.Deny,
			wantRule: CatchAllRuleID,
		},
		{
			name: "authenticated without grants falls to catch-all",
			ctx: defaultContext(func(ctx *Context) {
				ctx.Principal = schema.Principal{ID: "org:acme:role:member:person:bob", Active: true}
				ctx.Role = "member"
				ctx.Assurance = schema.AssuranceHigh
				ctx.CapabilityID = "tool.sdk.write"
				ctx.RequiredPermissions = schema.PermissionSet{schema.PermissionExecute}
			}),
			want:     schema.Deny,
			wantRule: CatchAllRuleID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := p.Evaluate(tt.ctx)
			if decision.Decision != tt.want {
				t.Fatalf("decision = %s (%s), want %s", decision.Decision, decision.Reason, tt.want)
			}
			if decision.RuleID != tt.wantRule {
				t.Errorf("rule = %s, want %s", decision.RuleID, tt.wantRule)
			}
		})
	}
}

func TestAssuranceAnnotations(t *testing.T) {
	p := Default()
	decision := p.Evaluate(defaultContext(func(ctx *Context) {
		ctx.Principal = schema.Principal{ID: "org:acme:role:operator:person:alice", Active: true}
		ctx.Role = "operator"
		ctx.Assurance = schema.AssuranceLow
	}))
	if decision.Allowed() {
		t.Fatal("low-assurance admin request allowed")
	}
	if decision.RequiredAssurance != schema.AssuranceHigh {
		t.Errorf("RequiredAssurance = %v, want high", decision.RequiredAssurance)
	}
	if decision.CurrentAssurance != schema.AssuranceLow {
		t.Errorf("CurrentAssurance = %v, want low", decision.CurrentAssurance)
	}
}

func TestEngineEnforcementGates(t *testing.T) {
	engine := NewEngine(Default(), nil)
	ctx := defaultContext(nil) // anonymous asking for admin: deny when enforced

	if decision := engine.Authorize(ctx); decision.Allowed() {
		t.Fatal("enforced engine allowed a privileged anonymous request")
	}

	engine.SetEnforcement(false)
	decision := engine.Authorize(ctx)
	if !decision.Allowed() || decision.Reason != EnforcementDisabledReason {
		t.Fatalf("global disable: %+v", decision)
	}

	// A channel override restores enforcement for that channel only.
	engine.SetChannelEnforcement("cli", true)
	if decision := engine.Authorize(ctx); decision.Allowed() {
		t.Error("cli override did not re-enable enforcement")
	}
	other := ctx
	other.Channel = "chat"
	if decision := engine.Authorize(other); !decision.Allowed() {
		t.Error("chat channel not covered by global disable")
	}

	engine.ClearChannelEnforcement("cli")
	if decision := engine.Authorize(ctx); !decision.Allowed() {
		t.Error("cleared override still enforcing")
	}
}
