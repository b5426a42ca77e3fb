// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command-tree framework the gatehouse CLI is
// built on: named subcommands, pflag flag sets, and tabwriter help.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the CLI tree: either a group (Subcommands)
// or a leaf (Run), never both.
type Command struct {
	// Name as typed by the user ("principal", "list").
	Name string

	// Summary is the one-liner in the parent's help listing.
	Summary string

	// Description is the longer help text for this command.
	Description string

	// Usage overrides the synthesized usage line.
	Usage string

	// Flags builds this command's flag set. Called once per Execute.
	// Nil means the command takes no flags.
	Flags func() *pflag.FlagSet

	// Subcommands dispatch on the first positional argument.
	Subcommands []*Command

	// Run executes a leaf command with the post-flag-parse arguments.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	parent *Command
}

// Execute dispatches args through the tree.
func (c *Command) Execute(ctx context.Context, args []string, logger *slog.Logger) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name := args[0]
		for _, sub := range c.Subcommands {
			if sub.Name == name {
				sub.parent = c
				return sub.Execute(ctx, args[1:], logger)
			}
		}
		return fmt.Errorf("unknown command %q; run '%s --help' for usage", name, c.fullName())
	}

	if c.Run == nil {
		c.PrintHelp(os.Stderr)
		if len(args) == 0 {
			return fmt.Errorf("subcommand required")
		}
		return fmt.Errorf("subcommand required (got %q)", args[0])
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			return fmt.Errorf("%s: %w; run '%s --help' for usage", c.fullName(), err, c.fullName())
		}
		args = flagSet.Args()
	}
	return c.Run(ctx, args, logger)
}

// PrintHelp writes usage, description, flags, and the subcommand table.
func (c *Command) PrintHelp(w io.Writer) {
	usage := c.Usage
	if usage == "" {
		usage = c.fullName()
		if c.Flags != nil {
			usage += " [flags]"
		}
		if len(c.Subcommands) > 0 {
			usage += " <command>"
		}
	}
	fmt.Fprintf(w, "Usage: %s\n", usage)
	if c.Description != "" {
		fmt.Fprintf(w, "\n%s\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", c.Summary)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		fmt.Fprintf(w, "\nFlags:\n%s", c.Flags().FlagUsages())
	}
}

func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
