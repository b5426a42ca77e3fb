// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package invoke

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gatehouse-dev/gatehouse/lib/capability"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
	"github.com/gatehouse-dev/gatehouse/lib/session"
)

func newEngineWithCaps(t *testing.T, descriptors ...schema.CapabilityDescriptor) *Engine {
	t.Helper()
	caps := capability.NewRegistry()
	for _, d := range descriptors {
		if err := caps.Register(d); err != nil {
			t.Fatalf("Register(%s): %v", d.ID, err)
		}
	}
	return NewEngine(caps, nil)
}

func testSession() *session.Session {
	return session.New("s1", "matrix", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), time.Hour)
}

func echoHandler(ctx context.Context, req *Request) (*Result, error) {
	return &Result{Output: "echo: " + req.Text}, nil
}

func TestInvokeDispatches(t *testing.T) {
	e := newEngineWithCaps(t, schema.CapabilityDescriptor{
		ID: "legacy.command.help", Kind: schema.KindAtomic,
		Substrate: schema.SubstrateSymbolic, Enabled: true,
	})
	if err := e.RegisterHandler(schema.SubstrateSymbolic, echoHandler); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	res, err := e.Invoke(context.Background(), "legacy.command.help", &Request{Text: "help"}, testSession())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Output != "echo: help" {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestInvokeNotFound(t *testing.T) {
	e := newEngineWithCaps(t,
		schema.CapabilityDescriptor{
			ID: "skill.off", Kind: schema.KindAtomic,
			Substrate: schema.SubstrateSymbolic, Enabled: false,
		})
	_ = e.RegisterHandler(schema.SubstrateSymbolic, echoHandler)

	// Absent and disabled produce the same error.
	for _, id := range []string{"skill.absent", "skill.off"} {
		_, err := e.Invoke(context.Background(), id, &Request{}, testSession())
		if !errors.Is(err, ErrCapabilityNotFound) {
			t.Fatalf("Invoke(%s) = %v, want ErrCapabilityNotFound", id, err)
		}
	}
}

func TestInvokePermissionBackstop(t *testing.T) {
	e := newEngineWithCaps(t, schema.CapabilityDescriptor{
		ID: "skill.report", Kind: schema.KindAtomic,
		Substrate:           schema.SubstrateSymbolic,
		RequiredPermissions: schema.PermissionSet{schema.PermissionExecute},
		Enabled:             true,
	})
	_ = e.RegisterHandler(schema.SubstrateSymbolic, echoHandler)

	sess := testSession()
	_, err := e.Invoke(context.Background(), "skill.report", &Request{}, sess)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("unauthorized invoke = %v, want ErrPermissionDenied", err)
	}

	sess.GrantPermission(schema.PermissionExecute)
	if _, err := e.Invoke(context.Background(), "skill.report", &Request{}, sess); err != nil {
		t.Fatalf("authorized invoke: %v", err)
	}
}

func TestInvokeUsesCachedCapabilityPermissions(t *testing.T) {
	e := newEngineWithCaps(t, schema.CapabilityDescriptor{
		ID: "skill.report", Kind: schema.KindAtomic,
		Substrate:           schema.SubstrateSymbolic,
		RequiredPermissions: schema.PermissionSet{schema.PermissionExecute},
		Enabled:             true,
	})
	_ = e.RegisterHandler(schema.SubstrateSymbolic, echoHandler)

	sess := testSession()
	sess.ReplaceCapabilityCaches(
		[]string{"skill.report"},
		[]string{"skill.report"},
		map[string]schema.PermissionSet{"skill.report": {schema.PermissionExecute}},
		"", schema.AssuranceNone)

	if _, err := e.Invoke(context.Background(), "skill.report", &Request{}, sess); err != nil {
		t.Fatalf("invoke with per-capability grant: %v", err)
	}
}

func TestTransportNeverInvocable(t *testing.T) {
	e := newEngineWithCaps(t, schema.CapabilityDescriptor{
		ID: "transport.matrix", Kind: schema.KindAtomic,
		Substrate: schema.SubstrateTransport, Enabled: true,
	})

	if err := e.RegisterHandler(schema.SubstrateTransport, echoHandler); !errors.Is(err, ErrNotInvocable) {
		t.Fatalf("RegisterHandler(transport) = %v, want ErrNotInvocable", err)
	}
	_, err := e.Invoke(context.Background(), "transport.matrix", &Request{}, testSession())
	if !errors.Is(err, ErrNotInvocable) {
		t.Fatalf("Invoke(transport) = %v, want ErrNotInvocable", err)
	}
}

func TestMissingHandler(t *testing.T) {
	e := newEngineWithCaps(t, schema.CapabilityDescriptor{
		ID: "skill.summarize", Kind: schema.KindAtomic,
		Substrate: schema.SubstrateLLM, Enabled: true,
	})
	_, err := e.Invoke(context.Background(), "skill.summarize", &Request{}, testSession())
	if !errors.Is(err, ErrNoHandler) {
		t.Fatalf("Invoke without handler = %v, want ErrNoHandler", err)
	}
}

func TestHookPipeline(t *testing.T) {
	d := schema.CapabilityDescriptor{
		ID: "skill.audited", Kind: schema.KindAtomic,
		Substrate: schema.SubstrateSymbolic, Enabled: true,
		PreHooks:  []string{"stamp"},
		PostHooks: []string{"annotate"},
	}
	e := newEngineWithCaps(t, d)
	_ = e.RegisterHandler(schema.SubstrateSymbolic, echoHandler)

	var order []string
	e.RegisterPreHook("stamp", func(ctx context.Context, req *Request) error {
		order = append(order, "pre")
		return nil
	})
	e.RegisterPostHook("annotate", func(ctx context.Context, req *Request, res *Result) error {
		order = append(order, "post")
		res.Output += " [annotated]"
		return nil
	})

	res, err := e.Invoke(context.Background(), "skill.audited", &Request{Text: "x"}, testSession())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(order) != 2 || order[0] != "pre" || order[1] != "post" {
		t.Fatalf("hook order = %v", order)
	}
	if res.Output != "echo: x [annotated]" {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestPreHookFailureAborts(t *testing.T) {
	e := newEngineWithCaps(t, schema.CapabilityDescriptor{
		ID: "skill.gated", Kind: schema.KindAtomic,
		Substrate: schema.SubstrateSymbolic, Enabled: true,
		PreHooks: []string{"refuse"},
	})
	handled := false
	_ = e.RegisterHandler(schema.SubstrateSymbolic, func(ctx context.Context, req *Request) (*Result, error) {
		handled = true
		return &Result{}, nil
	})
	e.RegisterPreHook("refuse", func(ctx context.Context, req *Request) error {
		return fmt.Errorf("rate limited")
	})

	_, err := e.Invoke(context.Background(), "skill.gated", &Request{}, testSession())
	if err == nil || handled {
		t.Fatalf("pre-hook failure must abort before dispatch (err=%v handled=%v)", err, handled)
	}
}

func TestErrorHooksObserveFailure(t *testing.T) {
	e := newEngineWithCaps(t, schema.CapabilityDescriptor{
		ID: "skill.flaky", Kind: schema.KindAtomic,
		Substrate: schema.SubstrateSymbolic, Enabled: true,
		ErrorHooks: []string{"report"},
	})
	boom := errors.New("backend unavailable")
	_ = e.RegisterHandler(schema.SubstrateSymbolic, func(ctx context.Context, req *Request) (*Result, error) {
		return nil, boom
	})
	var observed error
	e.RegisterErrorHook("report", func(ctx context.Context, req *Request, invokeErr error) {
		observed = invokeErr
	})

	_, err := e.Invoke(context.Background(), "skill.flaky", &Request{}, testSession())
	if !errors.Is(err, boom) {
		t.Fatalf("handler error not re-raised: %v", err)
	}
	if !errors.Is(observed, boom) {
		t.Fatalf("error hook observed %v", observed)
	}
}

func TestUnknownHookName(t *testing.T) {
	e := newEngineWithCaps(t, schema.CapabilityDescriptor{
		ID: "skill.broken", Kind: schema.KindAtomic,
		Substrate: schema.SubstrateSymbolic, Enabled: true,
		PreHooks: []string{"never-registered"},
	})
	_ = e.RegisterHandler(schema.SubstrateSymbolic, echoHandler)

	_, err := e.Invoke(context.Background(), "skill.broken", &Request{}, testSession())
	if !errors.Is(err, ErrUnknownHook) {
		t.Fatalf("Invoke = %v, want ErrUnknownHook", err)
	}
}
