// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package acl implements the capability access control registry.
//
// Every capability id has an ACL: explicit entries come from
// capability_acls.json, and any id without one gets a synthesized
// entry from SynthesizeDefault. Synthesis is deny-by-default and
// pattern-driven; an unknown capability id is private and admin-only,
// and only the fixed legacy public commands (help, about, version,
// login) come out public. SynthesizeDefault is a pure function so the
// whole pattern table can be unit-tested exhaustively.
//
// Two resolution questions are answered here, and only here, so every
// caller agrees on the semantics:
//
//   - ResolvePermissions: what may this role at this assurance do?
//     Explicit deny first (deny always wins), then the ACL's global
//     assurance floor, then the role matrix (exact row, then wildcard
//     row, each gated by its own assurance floor), then the default
//     permission set.
//
//   - VisibleTo: may this role see the capability in a listing?
//     Protected capabilities are never listed but remain directly
//     invocable for callers that know the id and pass the permission
//     check.
package acl
