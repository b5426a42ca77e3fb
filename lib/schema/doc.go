// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the value types shared by every Gatehouse
// component: principals, credential bindings, capability descriptors,
// access control lists, and authorization decisions.
//
// Types in this package are pure data. They carry JSON tags for the
// persisted registry documents (principals.json, credential_bindings.json,
// capability_acls.json) and CBOR tags for the deterministic encoding used
// by the audit trace store. Behavior lives in the component packages
// (lib/principal, lib/policy, lib/acl, ...); schema types provide only
// parsing, formatting, and the simple predicate methods that every
// component must agree on; assurance ranking, wildcard permission
// membership, binding subject matching.
//
// Timestamps are RFC 3339 strings, not time.Time. The registry documents
// are hand-editable JSON and string timestamps keep them readable; logic
// packages parse on demand and treat an unparseable expiry as already
// expired rather than propagating an error.
package schema
