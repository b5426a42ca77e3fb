// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"log/slog"
	"sync"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// Engine evaluates an active policy with per-channel enforcement
// gates. Safe for concurrent use; evaluation takes only a read lock.
type Engine struct {
	mu sync.RWMutex

	policy *Policy

	// enforce is the global gate. When false, every channel
	// short-circuits to allow.
	enforce bool

	// channelEnforce overrides the global gate per channel.
	channelEnforce map[string]bool

	logger *slog.Logger
}

// EnforcementDisabledReason is the reason string on short-circuit
// allows. Orchestrators and tests match on it.
const EnforcementDisabledReason = "enforcement disabled"

// NewEngine creates an engine over the given policy with enforcement
// on everywhere. A nil policy means Default().
func NewEngine(p *Policy, logger *slog.Logger) *Engine {
	if p == nil {
		p = Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		policy:         p,
		enforce:        true,
		channelEnforce: make(map[string]bool),
		logger:         logger,
	}
}

// SetPolicy swaps the active policy. In-flight evaluations finish
// against the old one.
func (e *Engine) SetPolicy(p *Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policy = p
}

// SetEnforcement toggles the global gate.
func (e *Engine) SetEnforcement(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enforce = on
}

// SetChannelEnforcement overrides the gate for one channel.
func (e *Engine) SetChannelEnforcement(channel string, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channelEnforce[channel] = on
}

// ClearChannelEnforcement removes a channel override, returning the
// channel to the global gate.
func (e *Engine) ClearChannelEnforcement(channel string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.channelEnforce, channel)
}

// EnforcedFor reports whether policy enforcement applies to a channel.
func (e *Engine) EnforcedFor(channel string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if override, ok := e.channelEnforce[channel]; ok {
		return override
	}
	return e.enforce
}

// Authorize evaluates the active policy for the context. When
// enforcement is disabled for the requesting channel the decision is
// an immediate allow with EnforcementDisabledReason; an operational
// dial for staged rollout, not a security boundary, and still logged.
func (e *Engine) Authorize(ctx Context) schema.AccessDecision {
	if !e.EnforcedFor(ctx.Channel) {
		e.logger.Debug("policy enforcement disabled for channel",
			"channel", ctx.Channel, "capability", ctx.CapabilityID)
		return schema.AccessDecision{
			Decision: schema.Allow,
			Reason:   EnforcementDisabledReason,
		}
	}

	e.mu.RLock()
	p := e.policy
	e.mu.RUnlock()

	return p.Evaluate(ctx)
}
