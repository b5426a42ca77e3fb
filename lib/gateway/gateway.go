// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gatehouse-dev/gatehouse/lib/access"
	"github.com/gatehouse-dev/gatehouse/lib/acl"
	"github.com/gatehouse-dev/gatehouse/lib/audit"
	"github.com/gatehouse-dev/gatehouse/lib/capability"
	"github.com/gatehouse-dev/gatehouse/lib/clock"
	"github.com/gatehouse-dev/gatehouse/lib/invoke"
	"github.com/gatehouse-dev/gatehouse/lib/policy"
	"github.com/gatehouse-dev/gatehouse/lib/principal"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
	"github.com/gatehouse-dev/gatehouse/lib/session"
)

var (
	// ErrUnroutable means no capability hint, command, or trigger
	// matched the message.
	ErrUnroutable = errors.New("message does not route to any capability")

	// ErrChannelNotAllowed means the channel fails the allow-list.
	ErrChannelNotAllowed = errors.New("channel is not allowed")

	// ErrSessionNotFound means the caller referenced a session id the
	// store does not hold (expired or never created).
	ErrSessionNotFound = errors.New("session not found")
)

// Options carries the gateway's dependencies. Principals,
// Capabilities, ACLs, Policy, Access, Invoker, and Sessions are
// required; the rest default.
type Options struct {
	Principals   *principal.Registry
	Capabilities *capability.Registry
	ACLs         *acl.Registry
	Policy       *policy.Engine
	Access       *access.Manager
	Invoker      *invoke.Engine
	Sessions     *session.Store

	// Audit receives every decision. Nil means decisions go only to
	// the logger.
	Audit audit.Sink

	// Channels is the transport allow-list. Empty allows all.
	Channels []string

	Clock  clock.Clock
	Logger *slog.Logger
}

// Gateway owns the request pipeline.
type Gateway struct {
	principals   *principal.Registry
	capabilities *capability.Registry
	acls         *acl.Registry
	policy       *policy.Engine
	access       *access.Manager
	invoker      *invoke.Engine
	sessions     *session.Store
	audit        audit.Sink
	channels     map[string]bool
	clk          clock.Clock
	logger       *slog.Logger
}

// Response is the outcome of one handled request. Result is nil when
// the decision denied or dispatch failed.
type Response struct {
	SessionID    string
	CapabilityID string
	Decision     schema.AccessDecision
	Result       *invoke.Result
}

// New wires a gateway and registers the built-in legacy commands.
func New(opts Options) (*Gateway, error) {
	switch {
	case opts.Principals == nil:
		return nil, fmt.Errorf("gateway: principal registry is required")
	case opts.Capabilities == nil:
		return nil, fmt.Errorf("gateway: capability registry is required")
	case opts.ACLs == nil:
		return nil, fmt.Errorf("gateway: ACL registry is required")
	case opts.Policy == nil:
		return nil, fmt.Errorf("gateway: policy engine is required")
	case opts.Access == nil:
		return nil, fmt.Errorf("gateway: access manager is required")
	case opts.Invoker == nil:
		return nil, fmt.Errorf("gateway: invocation engine is required")
	case opts.Sessions == nil:
		return nil, fmt.Errorf("gateway: session store is required")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var channels map[string]bool
	if len(opts.Channels) > 0 {
		channels = make(map[string]bool, len(opts.Channels))
		for _, ch := range opts.Channels {
			channels[ch] = true
		}
	}

	g := &Gateway{
		principals:   opts.Principals,
		capabilities: opts.Capabilities,
		acls:         opts.ACLs,
		policy:       opts.Policy,
		access:       opts.Access,
		invoker:      opts.Invoker,
		sessions:     opts.Sessions,
		audit:        opts.Audit,
		channels:     channels,
		clk:          clk,
		logger:       logger,
	}
	for _, d := range BuiltinCapabilities() {
		if err := g.capabilities.Register(d); err != nil {
			return nil, fmt.Errorf("gateway: registering builtin %s: %w", d.ID, err)
		}
	}
	return g, nil
}

// HandleRequest runs the full pipeline for one inbound envelope. The
// returned error covers operational faults; authorization outcomes
// live in Response.Decision.
func (g *Gateway) HandleRequest(ctx context.Context, env schema.Envelope) (*Response, error) {
	if g.channels != nil && !g.channels[env.Channel] {
		return nil, fmt.Errorf("%q: %w", env.Channel, ErrChannelNotAllowed)
	}

	p, scopes := g.resolve(env.Assertion)
	assurance := env.Assertion.Assurance
	if p.IsAnonymous() {
		assurance = schema.AssuranceNone
	}

	sess := g.attachSession(env, p, assurance, scopes)

	d, err := g.route(env)
	if err != nil {
		return &Response{SessionID: sess.ID()}, err
	}

	decision := g.authorize(sess, p, d, env.Channel)
	g.emitAudit(sess, p, d.ID, decision, env.Channel)

	resp := &Response{
		SessionID:    sess.ID(),
		CapabilityID: d.ID,
		Decision:     decision,
	}
	if !decision.Allowed() {
		return resp, nil
	}

	result, err := g.invoker.Invoke(ctx, d.ID, &invoke.Request{
		SessionID:   sess.ID(),
		Channel:     env.Channel,
		PrincipalID: p.ID,
		Text:        env.Text,
	}, sess)
	if err != nil {
		return resp, fmt.Errorf("gateway: %w", err)
	}
	resp.Result = result
	return resp, nil
}

// resolve maps the assertion to a principal, falling back to
// anonymous. The second return is the winning binding's scope set.
func (g *Gateway) resolve(assertion schema.ClientPrincipalAssertion) (schema.Principal, schema.PermissionSet) {
	if p, binding, ok := g.principals.ResolveBinding(assertion.Channel, assertion.Subject); ok {
		return p, binding.Scopes
	}
	anonymous, _ := g.principals.Get(schema.AnonymousPrincipalID)
	return anonymous, nil
}

// attachSession finds or creates the session and keeps its identity in
// step with this request's resolution.
func (g *Gateway) attachSession(env schema.Envelope, p schema.Principal, assurance schema.Assurance, scopes schema.PermissionSet) *session.Session {
	var sess *session.Session
	if env.SessionID != "" {
		if existing, ok := g.sessions.Get(env.SessionID); ok {
			sess = existing
		}
	}
	if sess == nil {
		sess = g.sessions.Create(env.Channel)
	}
	sess.Touch(g.clk.Now())

	principalID, _, current := sess.Identity()
	if principalID != p.ID || current != assurance {
		g.access.Elevate(sess, &p, assurance, scopes)
	} else if !sess.CachesValid() {
		g.access.ComputeSessionAccess(sess, &p, assurance)
	}
	return sess
}

// route picks the destination capability: explicit hint first, then
// command alias, then the longest matching trigger.
func (g *Gateway) route(env schema.Envelope) (schema.CapabilityDescriptor, error) {
	if env.CapabilityHint != "" {
		d, ok := g.capabilities.Get(env.CapabilityHint)
		if !ok {
			return schema.CapabilityDescriptor{}, fmt.Errorf("hint %q: %w", env.CapabilityHint, ErrUnroutable)
		}
		return d, nil
	}
	if d, ok := g.capabilities.FindByCommand(env.Text); ok {
		return d, nil
	}
	if d, ok := g.capabilities.FindByTrigger(env.Text); ok {
		return d, nil
	}
	return schema.CapabilityDescriptor{}, ErrUnroutable
}

// requiredPermissions is the permission set authorization checks for a
// capability. Descriptors usually declare their own; a bare legacy
// command defaults to use, anything else to execute.
func requiredPermissions(d schema.CapabilityDescriptor) schema.PermissionSet {
	if len(d.RequiredPermissions) > 0 {
		return d.RequiredPermissions
	}
	if strings.HasPrefix(d.ID, "legacy.command.") {
		return schema.PermissionSet{schema.PermissionUse}
	}
	return schema.PermissionSet{schema.PermissionExecute}
}

// authorize runs the policy engine and the ACL check and combines
// them: deny wins, and between two denies the one that can tell the
// caller how to elevate (required assurance set) is preferred.
func (g *Gateway) authorize(sess *session.Session, p schema.Principal, d schema.CapabilityDescriptor, channel string) schema.AccessDecision {
	required := requiredPermissions(d)
	granted := sess.GrantedPermissions()
	if cached, ok := sess.CachedPermissions(d.ID); ok {
		granted = granted.Merge(cached)
	}
	_, role, assurance := sess.Identity()

	policyDecision := g.policy.Authorize(policy.Context{
		Principal:           p,
		Role:                role,
		Assurance:           assurance,
		CapabilityID:        d.ID,
		RequiredPermissions: required,
		GrantedPermissions:  granted,
		Channel:             channel,
	})

	aclDecision := schema.AllowDecision("all required permissions granted")
	for _, perm := range required {
		if check := g.access.CheckAccess(sess, d.ID, perm); !check.Allowed() {
			aclDecision = check
			break
		}
	}

	return combine(policyDecision, aclDecision)
}

func combine(policyDecision, aclDecision schema.AccessDecision) schema.AccessDecision {
	if policyDecision.Reason == policy.EnforcementDisabledReason {
		return policyDecision
	}
	switch {
	case policyDecision.Allowed() && aclDecision.Allowed():
		return policyDecision
	case policyDecision.Allowed():
		return aclDecision
	case aclDecision.Allowed():
		return policyDecision
	default:
		// Both denied. Prefer the denial that names the assurance bar,
		// keeping the policy rule id so audit records still cite it.
		if policyDecision.RequiredAssurance == schema.AssuranceNone &&
			aclDecision.RequiredAssurance > schema.AssuranceNone {
			if aclDecision.RuleID == "" {
				aclDecision.RuleID = policyDecision.RuleID
			}
			return aclDecision
		}
		return policyDecision
	}
}

func (g *Gateway) emitAudit(sess *session.Session, p schema.Principal, capabilityID string, decision schema.AccessDecision, channel string) {
	_, _, assurance := sess.Identity()
	rec := audit.Record{
		Timestamp:    g.clk.Now(),
		Actor:        p.ID,
		SessionID:    sess.ID(),
		Channel:      channel,
		CapabilityID: capabilityID,
		Permission:   decision.Permission,
		Decision:     decision.Decision,
		Reason:       decision.Reason,
		RuleID:       decision.RuleID,
		Assurance:    assurance,
	}
	if g.audit != nil {
		if err := g.audit.Emit(rec); err != nil {
			g.logger.Error("audit emit failed", "error", err)
		}
	}
	g.logger.Info("decision",
		"actor", rec.Actor,
		"capability", rec.CapabilityID,
		"decision", rec.Decision.String(),
		"reason", rec.Reason,
		"channel", channel)
}

// Check runs resolution, routing, and authorization for an envelope
// without dispatching or auditing. Channels use it to preflight a
// request and the CLI uses it for offline what-if queries.
func (g *Gateway) Check(env schema.Envelope) (*Response, error) {
	if g.channels != nil && !g.channels[env.Channel] {
		return nil, fmt.Errorf("%q: %w", env.Channel, ErrChannelNotAllowed)
	}

	p, scopes := g.resolve(env.Assertion)
	assurance := env.Assertion.Assurance
	if p.IsAnonymous() {
		assurance = schema.AssuranceNone
	}
	sess := g.attachSession(env, p, assurance, scopes)

	d, err := g.route(env)
	if err != nil {
		return &Response{SessionID: sess.ID()}, err
	}

	return &Response{
		SessionID:    sess.ID(),
		CapabilityID: d.ID,
		Decision:     g.authorize(sess, p, d, env.Channel),
	}, nil
}

// Elevate applies an authentication event to an existing session: the
// channel re-asserts the caller's identity after a stronger login, and
// the session's access is recomputed at the new level.
func (g *Gateway) Elevate(sessionID string, assertion schema.ClientPrincipalAssertion) error {
	sess, ok := g.sessions.Get(sessionID)
	if !ok {
		return fmt.Errorf("%q: %w", sessionID, ErrSessionNotFound)
	}
	p, scopes := g.resolve(assertion)
	assurance := assertion.Assurance
	if p.IsAnonymous() {
		assurance = schema.AssuranceNone
	}
	g.access.Elevate(sess, &p, assurance, scopes)
	return nil
}

// ListVisibleCapabilities returns the capabilities the session may
// discover, in registration order.
func (g *Gateway) ListVisibleCapabilities(sessionID string) ([]schema.CapabilityDescriptor, error) {
	sess, ok := g.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%q: %w", sessionID, ErrSessionNotFound)
	}
	return g.access.ListVisible(sess), nil
}

// Reload re-reads the persisted principal, binding, and ACL documents.
// In-flight checks finish against the old snapshots.
func (g *Gateway) Reload() error {
	var errs []error
	if err := g.principals.Reload(); err != nil {
		errs = append(errs, fmt.Errorf("principals: %w", err))
	}
	if err := g.acls.Reload(); err != nil {
		errs = append(errs, fmt.Errorf("acls: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	g.logger.Info("state documents reloaded")
	return nil
}

// Close stops the session reaper and closes the audit sink.
func (g *Gateway) Close() error {
	g.sessions.Stop()
	if g.audit != nil {
		return g.audit.Close()
	}
	return nil
}
