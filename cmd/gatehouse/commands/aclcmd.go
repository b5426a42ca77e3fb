// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/gatehouse-dev/gatehouse/cmd/gatehouse/cli"
)

func aclCommand() *cli.Command {
	return &cli.Command{
		Name:    "acl",
		Summary: "Inspect capability ACLs",
		Subcommands: []*cli.Command{
			aclShowCommand(),
			aclListCommand(),
		},
	}
}

func aclShowCommand() *cli.Command {
	fs := pflag.NewFlagSet("acl show", pflag.ContinueOnError)
	configPath := configFlag(fs)

	return &cli.Command{
		Name:    "show",
		Summary: "Show the effective ACL for a capability id",
		Usage:   "gatehouse acl show <capability-id>",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one capability id required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			_, acls, err := openState(cfg, logger)
			if err != nil {
				return err
			}

			entry := acls.GetOrDefault(args[0])
			out, err := json.MarshalIndent(entry, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if entry.Synthesized {
				fmt.Fprintln(os.Stderr, "(synthesized default; no explicit entry)")
			}
			return nil
		},
	}
}

func aclListCommand() *cli.Command {
	fs := pflag.NewFlagSet("acl list", pflag.ContinueOnError)
	configPath := configFlag(fs)

	return &cli.Command{
		Name:    "list",
		Summary: "List explicit ACL entries",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			_, acls, err := openState(cfg, logger)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CAPABILITY\tVISIBILITY\tMIN ASSURANCE\tGRANT ROWS\tDENY ROLES")
			for _, entry := range acls.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					entry.CapabilityID, entry.Visibility, entry.MinAssurance,
					len(entry.Grants), len(entry.DenyRoles))
			}
			return tw.Flush()
		},
	}
}
