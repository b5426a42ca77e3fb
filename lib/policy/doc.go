// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy implements the rule-based authorization engine.
//
// A Policy is an ordered list of rules. Authorize evaluates them in
// ascending priority order and the first rule whose predicate matches
// the authorization context decides the outcome; later rules are
// never consulted. Every policy ends with an always-true catch-all
// deny, appended automatically, so an authorization question can never
// fall off the end of the rule list.
//
// Rules at equal priority keep their registration order. This is a
// deliberate, documented tiebreak: policies must evaluate
// deterministically, and registration order is the only order both
// the author and the auditor can see.
//
// Enforcement can be disabled globally or per channel for staged
// rollout. A disabled channel short-circuits to allow with the reason
// "enforcement disabled"; this is an operational dial, not a
// security boundary, and every short-circuit is still audited.
package policy
