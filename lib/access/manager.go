// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"fmt"
	"log/slog"

	"github.com/gatehouse-dev/gatehouse/lib/acl"
	"github.com/gatehouse-dev/gatehouse/lib/capability"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
	"github.com/gatehouse-dev/gatehouse/lib/session"
)

// Manager computes and enforces per-session capability access. It owns
// no state of its own: it reads the ACL and capability registries and
// writes the results into sessions.
type Manager struct {
	acls         *acl.Registry
	capabilities *capability.Registry
	logger       *slog.Logger
}

// Options configures a Manager.
type Options struct {
	ACLs         *acl.Registry
	Capabilities *capability.Registry

	// Logger receives debug records for cache recomputation. Optional.
	Logger *slog.Logger
}

// NewManager builds a Manager. Both registries are required.
func NewManager(opts Options) (*Manager, error) {
	if opts.ACLs == nil {
		return nil, fmt.Errorf("access: ACL registry is required")
	}
	if opts.Capabilities == nil {
		return nil, fmt.Errorf("access: capability registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		acls:         opts.ACLs,
		capabilities: opts.Capabilities,
		logger:       logger,
	}, nil
}

// ComputeSessionAccess recomputes the session's visible set, accessible
// set, and per-capability permission map for the given principal and
// assurance, replacing all three wholesale. It is the only writer of
// session capability caches after session creation; every identity or
// assurance change must route through it (or through Elevate, which
// calls it).
//
// A nil principal computes anonymous access. Disabled capabilities are
// excluded from both sets: a capability the operator switched off is
// neither listed nor executable no matter what the ACL grants.
func (m *Manager) ComputeSessionAccess(sess *session.Session, principal *schema.Principal, assurance schema.Assurance) {
	principalID := ""
	role := schema.RoleAnonymous
	if principal != nil {
		principalID = principal.ID
		role = principal.Role()
	}

	descriptors := m.capabilities.List(capability.Query{})
	visible := make([]string, 0, len(descriptors))
	accessible := make([]string, 0, len(descriptors))
	perms := make(map[string]schema.PermissionSet, len(descriptors))

	for _, d := range descriptors {
		entry := m.acls.GetOrDefault(d.ID)
		if acl.VisibleTo(entry, role) {
			visible = append(visible, d.ID)
		}
		granted := acl.ResolvePermissions(entry, role, assurance)
		if len(granted) == 0 {
			continue
		}
		perms[d.ID] = granted
		if granted.Has(schema.PermissionExecute) {
			accessible = append(accessible, d.ID)
		}
	}

	sess.ReplaceCapabilityCaches(visible, accessible, perms, principalID, assurance)
	m.logger.Debug("session access computed",
		"session_id", sess.ID(),
		"principal_id", principalID,
		"role", string(role),
		"assurance", assurance.String(),
		"visible", len(visible),
		"accessible", len(accessible))
}

// Elevate applies an authentication event to a session: it binds the
// principal's identity at the achieved assurance level, merges any
// scope permissions granted by the credential, and recomputes the
// capability caches. The three steps are one operation so a session can
// never hold a new identity with authorization computed for the old
// one.
func (m *Manager) Elevate(sess *session.Session, principal *schema.Principal, assurance schema.Assurance, scopes schema.PermissionSet) {
	principalID := ""
	role := schema.RoleAnonymous
	if principal != nil {
		principalID = principal.ID
		role = principal.Role()
	}
	sess.SetIdentity(principalID, role, assurance)
	if len(scopes) > 0 {
		sess.MergePermissions(scopes)
	}
	m.ComputeSessionAccess(sess, principal, assurance)
	m.logger.Info("session elevated",
		"session_id", sess.ID(),
		"principal_id", principalID,
		"assurance", assurance.String())
}

// CheckAccess decides whether the session may exercise one permission
// on one capability. It evaluates the ACL directly rather than the
// session caches, so it is exact even mid-recompute, and each stage
// produces its own reason:
//
//  1. Explicit role deny. Wins over everything, including admin.
//  2. Admin and system bypass.
//  3. The ACL's global assurance floor.
//  4. The role matrix row (exact, else wildcard), gated by the row's
//     own assurance floor.
//  5. The ACL's default permission set.
//
// A row that matches the role but lacks the permission denies; it does
// not fall through to the defaults.
func (m *Manager) CheckAccess(sess *session.Session, capabilityID string, perm schema.Permission) schema.AccessDecision {
	_, role, assurance := sess.Identity()
	entry := m.acls.GetOrDefault(capabilityID)

	decision := m.checkACL(entry, role, assurance, perm)
	decision.Permission = perm
	return decision
}

func (m *Manager) checkACL(entry schema.CapabilityACL, role schema.Role, assurance schema.Assurance, perm schema.Permission) schema.AccessDecision {
	if entry.DeniesRole(role) {
		return schema.DenyDecision(fmt.Sprintf("role %q is denied access to %s", role, entry.CapabilityID))
	}
	if role == schema.RoleAdmin || role == schema.RoleSystem {
		return schema.AllowDecision(fmt.Sprintf("role %q has administrative access", role))
	}
	if !assurance.Meets(entry.MinAssurance) {
		return schema.AccessDecision{
			Decision:          schema.Deny,
			Reason:            fmt.Sprintf("%s requires assurance %s, session has %s", entry.CapabilityID, entry.MinAssurance, assurance),
			RequiredAssurance: entry.MinAssurance,
			CurrentAssurance:  assurance,
		}
	}

	row := matchGrant(entry, role)
	if row != nil {
		if !assurance.Meets(row.MinAssurance) {
			return schema.AccessDecision{
				Decision:          schema.Deny,
				Reason:            fmt.Sprintf("role %q needs assurance %s for %s, session has %s", role, row.MinAssurance, entry.CapabilityID, assurance),
				RequiredAssurance: row.MinAssurance,
				CurrentAssurance:  assurance,
			}
		}
		if row.Permissions.Has(perm) {
			return schema.AllowDecision(fmt.Sprintf("role %q is granted %q on %s", role, perm, entry.CapabilityID))
		}
		return schema.AccessDecision{
			Decision:           schema.Deny,
			Reason:             fmt.Sprintf("role %q lacks %q on %s", role, perm, entry.CapabilityID),
			MissingPermissions: schema.PermissionSet{perm},
		}
	}

	if entry.DefaultPermissions.Has(perm) {
		return schema.AllowDecision(fmt.Sprintf("default permissions grant %q on %s", perm, entry.CapabilityID))
	}
	return schema.AccessDecision{
		Decision:           schema.Deny,
		Reason:             fmt.Sprintf("no grant gives role %q permission %q on %s", role, perm, entry.CapabilityID),
		MissingPermissions: schema.PermissionSet{perm},
	}
}

// matchGrant returns the exact role row, else the first wildcard row,
// else nil.
func matchGrant(entry schema.CapabilityACL, role schema.Role) *schema.RoleGrant {
	var wildcard *schema.RoleGrant
	for i := range entry.Grants {
		grant := &entry.Grants[i]
		if grant.Role == role {
			return grant
		}
		if grant.Role == schema.RoleWildcard && wildcard == nil {
			wildcard = grant
		}
	}
	return wildcard
}

// FilterVisible returns the descriptors whose ids appear in the
// session's visible cache. Admin and system sessions see everything
// enabled regardless of the cache.
func (m *Manager) FilterVisible(sess *session.Session, descriptors []schema.CapabilityDescriptor) []schema.CapabilityDescriptor {
	return m.filter(sess, descriptors, sess.CanSee)
}

// FilterAccessible returns the descriptors whose ids appear in the
// session's accessible cache, with the same admin and system bypass as
// FilterVisible.
func (m *Manager) FilterAccessible(sess *session.Session, descriptors []schema.CapabilityDescriptor) []schema.CapabilityDescriptor {
	return m.filter(sess, descriptors, sess.CanAccess)
}

func (m *Manager) filter(sess *session.Session, descriptors []schema.CapabilityDescriptor, allowed func(string) bool) []schema.CapabilityDescriptor {
	_, role, _ := sess.Identity()
	bypass := role == schema.RoleAdmin || role == schema.RoleSystem

	out := make([]schema.CapabilityDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if bypass {
			if !m.acls.GetOrDefault(d.ID).DeniesRole(role) {
				out = append(out, d)
			}
			continue
		}
		if allowed(d.ID) {
			out = append(out, d)
		}
	}
	return out
}

// ListVisible is the listing entry point: every enabled capability the
// session may see, in registration order.
func (m *Manager) ListVisible(sess *session.Session) []schema.CapabilityDescriptor {
	return m.FilterVisible(sess, m.capabilities.List(capability.Query{}))
}
