// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gatehouse-dev/gatehouse/cmd/gatehouse/cli"
	"github.com/gatehouse-dev/gatehouse/lib/gateway"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

func capabilityCommand() *cli.Command {
	return &cli.Command{
		Name:    "capability",
		Summary: "Inspect capability descriptors",
		Subcommands: []*cli.Command{
			capabilityListCommand(),
		},
	}
}

func capabilityListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Summary: "List the built-in capability descriptors",
		Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSUBSTRATE\tCOMMANDS\tPERMISSIONS")
			for _, d := range gateway.BuiltinCapabilities() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					d.ID, d.Substrate,
					strings.Join(d.Commands, ","),
					permissionNames(d.RequiredPermissions))
			}
			return tw.Flush()
		},
	}
}

func permissionNames(set schema.PermissionSet) string {
	names := make([]string, len(set))
	for i, p := range set {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}
