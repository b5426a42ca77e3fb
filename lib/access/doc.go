// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package access implements the capability access manager: the
// component that combines the ACL registry with a session's role and
// assurance to compute what that session may see and execute.
//
// ComputeSessionAccess is the single writer of session capability
// caches after session creation. Elevate wraps the invariant sequence
// an authentication event requires; set identity, merge scopes, then
// recompute; so no caller can forget the recompute step and leave
// stale authorization in place.
//
// CheckAccess answers point-in-time questions against the ACL
// directly (not the caches) with a human-readable reason per stage,
// so a denial can always tell the caller what was missing.
package access
