// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDispatch(t *testing.T) {
	var got []string
	root := &Command{
		Name: "root",
		Subcommands: []*Command{
			{
				Name: "leaf",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					got = args
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"leaf", "a", "b"}, testLogger()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("leaf args = %v", got)
	}
}

func TestUnknownSubcommand(t *testing.T) {
	root := &Command{
		Name:        "root",
		Subcommands: []*Command{{Name: "leaf", Run: func(context.Context, []string, *slog.Logger) error { return nil }}},
	}
	err := root.Execute(context.Background(), []string{"nope"}, testLogger())
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("err = %v", err)
	}
}

func TestFlagsParsedBeforeRun(t *testing.T) {
	fs := pflag.NewFlagSet("leaf", pflag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "")

	var positional []string
	leaf := &Command{
		Name:  "leaf",
		Flags: func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			positional = args
			return nil
		},
	}

	if err := leaf.Execute(context.Background(), []string{"--verbose", "x"}, testLogger()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !*verbose {
		t.Error("--verbose not parsed")
	}
	if len(positional) != 1 || positional[0] != "x" {
		t.Errorf("positional = %v", positional)
	}
}

func TestGroupWithoutSubcommandFails(t *testing.T) {
	root := &Command{
		Name:        "root",
		Subcommands: []*Command{{Name: "leaf", Run: func(context.Context, []string, *slog.Logger) error { return nil }}},
	}
	if err := root.Execute(context.Background(), nil, testLogger()); err == nil {
		t.Error("group command without arguments succeeded")
	}
}

func TestHelpRendering(t *testing.T) {
	var out strings.Builder
	root := &Command{
		Name:    "gatehouse",
		Summary: "top",
		Subcommands: []*Command{
			{Name: "principal", Summary: "Manage semantic identities"},
		},
	}
	root.PrintHelp(&out)

	help := out.String()
	for _, want := range []string{"Usage: gatehouse", "principal", "Manage semantic identities"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}
