// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/gatehouse-dev/gatehouse/cmd/gatehouse/cli"
	"github.com/gatehouse-dev/gatehouse/lib/principal"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

func principalCommand() *cli.Command {
	return &cli.Command{
		Name:    "principal",
		Summary: "Manage semantic identities",
		Subcommands: []*cli.Command{
			principalListCommand(),
			principalRegisterCommand(),
			principalDeactivateCommand(),
		},
	}
}

func principalListCommand() *cli.Command {
	fs := pflag.NewFlagSet("principal list", pflag.ContinueOnError)
	configPath := configFlag(fs)
	activeOnly := fs.Bool("active", false, "show only active principals")

	return &cli.Command{
		Name:    "list",
		Summary: "List registered principals",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			principals, _, err := openState(cfg, logger)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tROLE\tACTIVE\tNAME")
			for _, p := range principals.List(principal.Filter{ActiveOnly: *activeOnly}) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
					p.ID, p.Type, p.Role(), p.Active, p.DisplayName)
			}
			return tw.Flush()
		},
	}
}

func principalRegisterCommand() *cli.Command {
	fs := pflag.NewFlagSet("principal register", pflag.ContinueOnError)
	configPath := configFlag(fs)
	org := fs.String("org", "", "organization component of the URN")
	role := fs.String("role", "", "role component of the URN")
	person := fs.String("person", "", "person component of the URN")
	ptype := fs.String("type", string(schema.PrincipalHuman), "principal type (human, agent, service)")
	name := fs.String("name", "", "display name")

	return &cli.Command{
		Name:    "register",
		Summary: "Register a new principal",
		Usage:   "gatehouse principal register --org <org> --role <role> --person <person> [flags]",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			if *org == "" || *role == "" || *person == "" {
				return fmt.Errorf("--org, --role, and --person are required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			principals, _, err := openState(cfg, logger)
			if err != nil {
				return err
			}

			id := schema.PrincipalURN(*org, schema.Role(*role), *person)
			err = principals.Register(schema.Principal{
				ID:          id,
				Type:        schema.PrincipalType(*ptype),
				DisplayName: *name,
				Active:      true,
			})
			if err != nil {
				return err
			}
			fmt.Printf("registered %s\n", id)
			return nil
		},
	}
}

func principalDeactivateCommand() *cli.Command {
	fs := pflag.NewFlagSet("principal deactivate", pflag.ContinueOnError)
	configPath := configFlag(fs)

	return &cli.Command{
		Name:    "deactivate",
		Summary: "Deactivate a principal (its bindings stop resolving)",
		Usage:   "gatehouse principal deactivate <principal-id>",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one principal id required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			principals, _, err := openState(cfg, logger)
			if err != nil {
				return err
			}
			if err := principals.Deactivate(args[0]); err != nil {
				return err
			}
			fmt.Printf("deactivated %s\n", args[0])
			return nil
		},
	}
}
