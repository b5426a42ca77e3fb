// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package principal implements the principal registry: the store of
// semantic identities and the credential bindings that map
// channel-asserted subjects onto them.
//
// Resolution is the hot path. A channel adapter hands the gateway an
// unverified (channel, subject) claim; Resolve scans the active,
// non-expired bindings in registration order and returns the principal
// behind the first match. Binding subjects may end in "*" for prefix
// matching, which is how a single binding can cover every OS-local
// caller on the cli channel. No match is not an error; the caller
// falls back to the anonymous principal.
//
// The registry is read-mostly: resolution takes a read lock, and
// administrative mutations (register, deactivate, binding changes)
// take the write lock. In-memory state is updated before persistence,
// so a concurrent authorization check observes a new binding
// immediately even if the disk write is still in flight.
package principal
