// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"testing"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

func helpDescriptor() schema.CapabilityDescriptor {
	return schema.CapabilityDescriptor{
		ID:                  "legacy.command.help",
		Name:                "Help",
		Kind:                schema.KindAtomic,
		Substrate:           schema.SubstrateSymbolic,
		Commands:            []string{"help", "h"},
		RequiredPermissions: schema.PermissionSet{schema.PermissionUse},
		Enabled:             true,
		Immutable:           true,
	}
}

func TestNormalizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/help", "help"},
		{"--version", "version"},
		{"help", "help"},
		{"/status?verbose=1", "status"},
		{"/help extra args", "help"},
		{"  /help  ", "help"},
		{"/startSession", "startSession"},
		{"/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCommand(tt.in); got != tt.want {
			t.Errorf("NormalizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTrigger(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summarize This", "summarize this"},
		{"  summarize\n\tthis  ", "summarize this"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTrigger(tt.in); got != tt.want {
			t.Errorf("NormalizeTrigger(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	mutable := schema.CapabilityDescriptor{
		ID:        "skill.summarize",
		Kind:      schema.KindAtomic,
		Substrate: schema.SubstrateLLM,
		Commands:  []string{"summarize"},
		Enabled:   true,
	}
	if err := r.Register(mutable); err != nil {
		t.Fatal(err)
	}
	// Identical content: no-op, no duplicate index entries.
	if err := r.Register(mutable); err != nil {
		t.Fatalf("idempotent re-registration failed: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d after idempotent re-registration", r.Count())
	}
	if d, ok := r.FindByCommand("/summarize"); !ok || d.ID != mutable.ID {
		t.Error("command index broken after re-registration")
	}
}

func TestRegisterImmutable(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(helpDescriptor()); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(helpDescriptor()); err == nil {
		t.Error("immutable re-registration succeeded")
	}
	if err := r.Unregister("legacy.command.help"); err == nil {
		t.Error("immutable unregistration succeeded")
	}
}

func TestRegisterReplacesMutable(t *testing.T) {
	r := NewRegistry()
	d := schema.CapabilityDescriptor{
		ID:        "skill.translate",
		Kind:      schema.KindAtomic,
		Substrate: schema.SubstrateLLM,
		Commands:  []string{"translate"},
		Enabled:   true,
	}
	if err := r.Register(d); err != nil {
		t.Fatal(err)
	}
	d.Commands = []string{"translate", "tr"}
	if err := r.Register(d); err != nil {
		t.Fatal(err)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d after replace", r.Count())
	}
	if _, ok := r.FindByCommand("/tr"); !ok {
		t.Error("new alias not indexed")
	}
}

func TestCommandConflict(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(helpDescriptor()); err != nil {
		t.Fatal(err)
	}
	intruder := schema.CapabilityDescriptor{
		ID:        "skill.fake-help",
		Kind:      schema.KindAtomic,
		Substrate: schema.SubstrateLLM,
		Commands:  []string{"help"},
		Enabled:   true,
	}
	if err := r.Register(intruder); err == nil {
		t.Error("alias shadowing accepted")
	}
}

func TestFindByCommand(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(helpDescriptor()); err != nil {
		t.Fatal(err)
	}
	for _, text := range []string{"/help", "help", "--help", "/help?lang=en", "/h"} {
		if d, ok := r.FindByCommand(text); !ok || d.ID != "legacy.command.help" {
			t.Errorf("FindByCommand(%q) = %v, %v", text, d.ID, ok)
		}
	}
	if _, ok := r.FindByCommand("/missing"); ok {
		t.Error("unknown command resolved")
	}
}

func TestFindByTriggerLongestWins(t *testing.T) {
	r := NewRegistry()
	short := schema.CapabilityDescriptor{
		ID: "skill.deploy", Kind: schema.KindAtomic, Substrate: schema.SubstrateShell,
		Triggers: []string{"deploy"}, Enabled: true,
	}
	long := schema.CapabilityDescriptor{
		ID: "skill.deploy-production", Kind: schema.KindAtomic, Substrate: schema.SubstrateShell,
		Triggers: []string{"deploy to production"}, Enabled: true,
	}
	if err := r.Register(short); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(long); err != nil {
		t.Fatal(err)
	}

	// The longer trigger contains the shorter one as a substring; the
	// longer must win.
	if d, ok := r.FindByTrigger("please Deploy To Production now"); !ok || d.ID != "skill.deploy-production" {
		t.Errorf("long trigger lost: %v", d.ID)
	}
	if d, ok := r.FindByTrigger("deploy the preview"); !ok || d.ID != "skill.deploy" {
		t.Errorf("short trigger broken: %v", d.ID)
	}
	if _, ok := r.FindByTrigger("unrelated message"); ok {
		t.Error("unrelated text triggered a capability")
	}
}

func TestListQuery(t *testing.T) {
	r := NewRegistry()
	descriptors := []schema.CapabilityDescriptor{
		helpDescriptor(),
		{ID: "skill.summarize", Kind: schema.KindAtomic, Substrate: schema.SubstrateLLM, Enabled: true},
		{ID: "tool.sdk.read", Kind: schema.KindAtomic, Substrate: schema.SubstrateSymbolic, Enabled: false},
	}
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			t.Fatal(err)
		}
	}

	enabled := r.List(Query{})
	if len(enabled) != 2 {
		t.Errorf("List enabled = %d, want 2", len(enabled))
	}
	all := r.List(Query{IncludeDisabled: true})
	if len(all) != 3 {
		t.Errorf("List all = %d, want 3", len(all))
	}
	llm := r.List(Query{Substrate: schema.SubstrateLLM})
	if len(llm) != 1 || llm[0].ID != "skill.summarize" {
		t.Errorf("List llm = %+v", llm)
	}
}
