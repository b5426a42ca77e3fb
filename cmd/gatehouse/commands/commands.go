// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the gatehouse CLI command tree. Every
// subcommand operates offline on the state documents the gateway
// reads, so operators edit exactly what the running gateway reloads.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gatehouse-dev/gatehouse/cmd/gatehouse/cli"
	"github.com/gatehouse-dev/gatehouse/lib/version"
)

// Root builds the complete command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "gatehouse",
		Description: `Gatehouse: capability authorization for multi-channel agent gateways.

Manage principals, credential bindings, and capability ACLs; simulate
authorization decisions; and query the audit trail.`,
		Subcommands: []*cli.Command{
			principalCommand(),
			bindingCommand(),
			aclCommand(),
			capabilityCommand(),
			checkCommand(),
			auditCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Printf("gatehouse %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
