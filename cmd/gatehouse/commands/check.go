// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/gatehouse-dev/gatehouse/cmd/gatehouse/cli"
	"github.com/gatehouse-dev/gatehouse/lib/access"
	"github.com/gatehouse-dev/gatehouse/lib/capability"
	"github.com/gatehouse-dev/gatehouse/lib/config"
	"github.com/gatehouse-dev/gatehouse/lib/gateway"
	"github.com/gatehouse-dev/gatehouse/lib/invoke"
	"github.com/gatehouse-dev/gatehouse/lib/policy"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
	"github.com/gatehouse-dev/gatehouse/lib/session"
)

func checkCommand() *cli.Command {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	configPath := configFlag(fs)
	assuranceFlag := fs.String("assurance", "high", "assurance level to assert (none, low, medium, high, cryptographic)")

	return &cli.Command{
		Name:    "check",
		Summary: "Simulate an authorization decision",
		Description: "Resolves the subject on the given channel against the persisted\n" +
			"bindings, attaches a fresh session, and prints the decision the\n" +
			"gateway would reach for the capability. Nothing is invoked and\n" +
			"nothing is audited.",
		Usage: "gatehouse check <channel> <subject> <capability-id>",
		Flags: func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 3 {
				return fmt.Errorf("expected <channel> <subject> <capability-id>")
			}
			assurance, err := schema.ParseAssurance(*assuranceFlag)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			gw, err := offlineGateway(cfg, logger)
			if err != nil {
				return err
			}
			defer gw.Close()

			resp, err := gw.Check(schema.Envelope{
				Channel:        args[0],
				CapabilityHint: args[2],
				Assertion: schema.ClientPrincipalAssertion{
					Channel:   args[0],
					Subject:   args[1],
					Assurance: assurance,
				},
			})
			if err != nil {
				return err
			}

			d := resp.Decision
			fmt.Printf("capability: %s\n", resp.CapabilityID)
			fmt.Printf("decision:   %s\n", d.Decision)
			fmt.Printf("reason:     %s\n", d.Reason)
			if d.RuleID != "" {
				fmt.Printf("rule:       %s\n", d.RuleID)
			}
			if d.RequiredAssurance > schema.AssuranceNone {
				fmt.Printf("required assurance: %s (current %s)\n",
					d.RequiredAssurance, d.CurrentAssurance)
			}
			return nil
		},
	}
}

// offlineGateway wires a gateway over the persisted state documents
// with no audit sinks, for what-if queries.
func offlineGateway(cfg *config.Config, logger *slog.Logger) (*gateway.Gateway, error) {
	principals, acls, err := openState(cfg, logger)
	if err != nil {
		return nil, err
	}
	capabilities := capability.NewRegistry()
	manager, err := access.NewManager(access.Options{
		ACLs:         acls,
		Capabilities: capabilities,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	engine := policy.NewEngine(nil, logger)
	engine.SetEnforcement(cfg.Enforcement.Enabled)
	for ch, on := range cfg.Enforcement.ChannelOverrides {
		engine.SetChannelEnforcement(ch, on)
	}
	return gateway.New(gateway.Options{
		Principals:   principals,
		Capabilities: capabilities,
		ACLs:         acls,
		Policy:       engine,
		Access:       manager,
		Invoker:      invoke.NewEngine(capabilities, logger),
		Sessions:     session.NewStore(session.StoreOptions{TTL: cfg.Session.TTL.Std(), Logger: logger}),
		Channels:     cfg.Channels,
		Logger:       logger,
	})
}
