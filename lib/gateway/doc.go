// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway is the composition root: it wires the principal
// registry, policy engine, ACL registry, capability registry, session
// store, access manager, invocation engine, and audit sinks into the
// request pipeline every channel adapter calls.
//
// A request moves through fixed stages: resolve the channel's identity
// assertion to a principal, attach the session, route the message to a
// capability (hint, then command, then trigger), authorize through
// both the policy engine and the ACL check with deny winning, audit
// the decision, and finally dispatch. Authorization failures are
// decisions, not errors; only operational faults (unroutable message,
// disallowed channel) surface as errors.
package gateway
