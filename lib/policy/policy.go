// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"sort"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// Context is the tuple a policy rule predicate sees.
type Context struct {
	// Principal is the resolved caller identity.
	Principal schema.Principal

	// Role is the caller's role shorthand (the principal's role
	// component, or anonymous when unresolved).
	Role schema.Role

	// Assurance is the session's current assurance level.
	Assurance schema.Assurance

	// CapabilityID is the target capability.
	CapabilityID string

	// RequiredPermissions are the permissions the capability demands.
	RequiredPermissions schema.PermissionSet

	// GrantedPermissions are the permissions the session holds.
	GrantedPermissions schema.PermissionSet

	// Channel is the requesting channel id.
	Channel string
}

// Rule is one policy entry: a predicate over the context, the
// decision it produces when the predicate holds, and an evaluation
// priority (lower evaluates first).
type Rule struct {
	// ID names the rule in decisions and audit records.
	ID string

	// Description is the human-facing summary.
	Description string

	// Priority orders evaluation, ascending. Rules sharing a priority
	// keep registration order.
	Priority int

	// Predicate reports whether the rule applies to the context.
	Predicate func(Context) bool

	// Decision is the outcome when the predicate holds.
	Decision schema.Decision

	// Reason is the human-readable explanation attached to the
	// decision.
	Reason string

	// Annotate, when set, enriches the decision with context-derived
	// detail (required vs. current assurance, missing permissions)
	// after the predicate matches.
	Annotate func(Context, *schema.AccessDecision)
}

// CatchAllRuleID names the implicit final deny every policy carries.
const CatchAllRuleID = "deny-default"

// Policy is an ordered rule list terminated by the catch-all deny.
type Policy struct {
	rules []Rule
}

// New builds a Policy from rules. The rules are stably sorted by
// ascending priority (registration order breaks ties) and the
// catch-all deny is appended as the final entry. Rules must have
// unique, non-empty ids and a predicate.
func New(rules ...Rule) (*Policy, error) {
	seen := make(map[string]bool, len(rules))
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	for _, rule := range ordered {
		if rule.ID == "" {
			return nil, fmt.Errorf("policy rule with empty id")
		}
		if rule.ID == CatchAllRuleID {
			return nil, fmt.Errorf("rule id %q is reserved for the implicit catch-all", CatchAllRuleID)
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("duplicate policy rule id %q", rule.ID)
		}
		if rule.Predicate == nil {
			return nil, fmt.Errorf("policy rule %s has no predicate", rule.ID)
		}
		seen[rule.ID] = true
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	ordered = append(ordered, Rule{
		ID:          CatchAllRuleID,
		Description: "deny anything no earlier rule allowed",
		Priority:    int(^uint(0) >> 1),
		Predicate:   func(Context) bool { return true },
		Decision:    schema.Deny,
		Reason:      "no policy rule allows this request",
		Annotate: func(ctx Context, d *schema.AccessDecision) {
			d.MissingPermissions = ctx.GrantedPermissions.Missing(ctx.RequiredPermissions)
		},
	})
	return &Policy{rules: ordered}, nil
}

// Rules returns the evaluation-ordered rule list, catch-all included.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Evaluate runs the rules in order and returns the decision of the
// first rule whose predicate matches. The catch-all guarantees a
// result.
func (p *Policy) Evaluate(ctx Context) schema.AccessDecision {
	for _, rule := range p.rules {
		if !rule.Predicate(ctx) {
			continue
		}
		decision := schema.AccessDecision{
			Decision: rule.Decision,
			Reason:   rule.Reason,
			RuleID:   rule.ID,
		}
		if rule.Annotate != nil {
			rule.Annotate(ctx, &decision)
		}
		return decision
	}
	// Unreachable: the catch-all predicate is always true.
	return schema.DenyDecision("no policy rule matched")
}
