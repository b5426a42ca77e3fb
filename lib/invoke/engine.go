// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gatehouse-dev/gatehouse/lib/capability"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
	"github.com/gatehouse-dev/gatehouse/lib/session"
)

// Sentinel errors callers branch on. Everything else that comes out of
// Invoke wraps a handler or hook failure.
var (
	// ErrCapabilityNotFound covers both an unregistered id and a
	// disabled capability. The two are deliberately indistinguishable.
	ErrCapabilityNotFound = errors.New("capability not found")

	// ErrPermissionDenied means the session's granted permissions do
	// not cover the descriptor's required set. The orchestrator checks
	// first; this is the engine's own backstop.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotInvocable marks capabilities registered for discovery only,
	// currently the transport substrate.
	ErrNotInvocable = errors.New("capability is not invocable")

	// ErrNoHandler means no handler is registered for the descriptor's
	// substrate.
	ErrNoHandler = errors.New("no handler for substrate")

	// ErrUnknownHook means a descriptor names a hook that was never
	// registered.
	ErrUnknownHook = errors.New("unknown hook")
)

// Request is the input to a capability invocation.
type Request struct {
	// Capability is the resolved descriptor. Set by the engine before
	// hooks or handlers see the request.
	Capability schema.CapabilityDescriptor

	// SessionID and Channel identify the conversation the invocation
	// belongs to.
	SessionID string
	Channel   string

	// PrincipalID is the session's resolved identity, empty for
	// anonymous.
	PrincipalID string

	// Text is the raw message text after routing. Handlers parse their
	// own arguments from it.
	Text string

	// Args carries structured arguments when the channel provides them.
	Args map[string]any
}

// Result is a handler's output.
type Result struct {
	// Output is the text to send back on the channel.
	Output string

	// Data carries structured output for channels that render more
	// than text.
	Data map[string]any
}

// Handler executes invocations for one substrate.
type Handler func(ctx context.Context, req *Request) (*Result, error)

// Hook functions run around dispatch, looked up by the names a
// descriptor carries. A PreHook error aborts the invocation. PostHooks
// run on success; a PostHook error fails the invocation after the
// fact. ErrorHooks observe failures and cannot suppress them.
type (
	PreHook   func(ctx context.Context, req *Request) error
	PostHook  func(ctx context.Context, req *Request, res *Result) error
	ErrorHook func(ctx context.Context, req *Request, invokeErr error)
)

// Engine dispatches invocations to substrate handlers.
type Engine struct {
	capabilities *capability.Registry
	logger       *slog.Logger

	mu         sync.RWMutex
	handlers   map[schema.Substrate]Handler
	preHooks   map[string]PreHook
	postHooks  map[string]PostHook
	errorHooks map[string]ErrorHook
}

// NewEngine builds an engine over a capability registry. Handlers and
// hooks are registered afterwards by the embedding process.
func NewEngine(capabilities *capability.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		capabilities: capabilities,
		logger:       logger,
		handlers:     make(map[schema.Substrate]Handler),
		preHooks:     make(map[string]PreHook),
		postHooks:    make(map[string]PostHook),
		errorHooks:   make(map[string]ErrorHook),
	}
}

// RegisterHandler installs the handler for a substrate. The transport
// substrate takes no handler: those capabilities are discovery-only.
func (e *Engine) RegisterHandler(substrate schema.Substrate, h Handler) error {
	if substrate == schema.SubstrateTransport {
		return fmt.Errorf("substrate %q: %w", substrate, ErrNotInvocable)
	}
	known := false
	for _, s := range schema.KnownSubstrates {
		if substrate == s {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown substrate %q", substrate)
	}
	if h == nil {
		return fmt.Errorf("substrate %q: nil handler", substrate)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[substrate] = h
	return nil
}

// RegisterPreHook installs a named pre-dispatch hook.
func (e *Engine) RegisterPreHook(name string, h PreHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preHooks[name] = h
}

// RegisterPostHook installs a named post-dispatch hook.
func (e *Engine) RegisterPostHook(name string, h PostHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.postHooks[name] = h
}

// RegisterErrorHook installs a named failure observer.
func (e *Engine) RegisterErrorHook(name string, h ErrorHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errorHooks[name] = h
}

// Invoke dispatches capability id for the session. The caller has
// already authorized the invocation; the engine still verifies the
// descriptor's required permissions against the session as a backstop,
// so a bug upstream cannot silently skip the check.
func (e *Engine) Invoke(ctx context.Context, id string, req *Request, sess *session.Session) (*Result, error) {
	d, ok := e.capabilities.Get(id)
	if !ok || !d.Enabled {
		return nil, fmt.Errorf("%s: %w", id, ErrCapabilityNotFound)
	}
	req.Capability = d
	if req.SessionID == "" {
		req.SessionID = sess.ID()
	}

	if len(d.RequiredPermissions) > 0 {
		granted := sess.GrantedPermissions()
		if cached, ok := sess.CachedPermissions(id); ok {
			granted = granted.Merge(cached)
		}
		if missing := granted.Missing(d.RequiredPermissions); len(missing) > 0 {
			return nil, fmt.Errorf("%s requires %v: %w", id, missing, ErrPermissionDenied)
		}
	}

	handler, err := e.handlerFor(d.Substrate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	if err := e.runPreHooks(ctx, d, req); err != nil {
		return nil, err
	}

	res, err := handler(ctx, req)
	if err != nil {
		e.runErrorHooks(ctx, d, req, err)
		return nil, fmt.Errorf("invoking %s: %w", id, err)
	}
	if res == nil {
		res = &Result{}
	}

	if err := e.runPostHooks(ctx, d, req, res); err != nil {
		e.runErrorHooks(ctx, d, req, err)
		return nil, err
	}
	e.logger.Debug("capability invoked", "capability", id, "session_id", req.SessionID, "substrate", string(d.Substrate))
	return res, nil
}

// handlerFor resolves the substrate to its handler. The switch is
// exhaustive over the closed substrate set: a new substrate constant
// fails here until dispatch is decided for it.
func (e *Engine) handlerFor(substrate schema.Substrate) (Handler, error) {
	switch substrate {
	case schema.SubstrateTransport:
		return nil, ErrNotInvocable
	case schema.SubstrateSymbolic, schema.SubstrateLLM, schema.SubstrateShell,
		schema.SubstrateAgent, schema.SubstrateExternal:
		e.mu.RLock()
		h, ok := e.handlers[substrate]
		e.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%q: %w", substrate, ErrNoHandler)
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown substrate %q", substrate)
	}
}

func (e *Engine) runPreHooks(ctx context.Context, d schema.CapabilityDescriptor, req *Request) error {
	for _, name := range d.PreHooks {
		e.mu.RLock()
		hook, ok := e.preHooks[name]
		e.mu.RUnlock()
		if !ok {
			return fmt.Errorf("%s pre-hook %q: %w", d.ID, name, ErrUnknownHook)
		}
		if err := hook(ctx, req); err != nil {
			return fmt.Errorf("%s pre-hook %q: %w", d.ID, name, err)
		}
	}
	return nil
}

func (e *Engine) runPostHooks(ctx context.Context, d schema.CapabilityDescriptor, req *Request, res *Result) error {
	for _, name := range d.PostHooks {
		e.mu.RLock()
		hook, ok := e.postHooks[name]
		e.mu.RUnlock()
		if !ok {
			return fmt.Errorf("%s post-hook %q: %w", d.ID, name, ErrUnknownHook)
		}
		if err := hook(ctx, req, res); err != nil {
			return fmt.Errorf("%s post-hook %q: %w", d.ID, name, err)
		}
	}
	return nil
}

func (e *Engine) runErrorHooks(ctx context.Context, d schema.CapabilityDescriptor, req *Request, invokeErr error) {
	for _, name := range d.ErrorHooks {
		e.mu.RLock()
		hook, ok := e.errorHooks[name]
		e.mu.RUnlock()
		if !ok {
			e.logger.Warn("unregistered error hook", "capability", d.ID, "hook", name)
			continue
		}
		hook(ctx, req, invokeErr)
	}
}
