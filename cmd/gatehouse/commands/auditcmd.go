// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/gatehouse-dev/gatehouse/cmd/gatehouse/cli"
	"github.com/gatehouse-dev/gatehouse/lib/audit"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:    "audit",
		Summary: "Query the audit trace store",
		Subcommands: []*cli.Command{
			auditTailCommand(),
		},
	}
}

func auditTailCommand() *cli.Command {
	fs := pflag.NewFlagSet("audit tail", pflag.ContinueOnError)
	configPath := configFlag(fs)
	actor := fs.String("actor", "", "filter by actor principal id")
	capabilityID := fs.String("capability", "", "filter by capability id")
	decisionFlag := fs.String("decision", "", "filter by decision (allow, deny)")
	since := fs.Duration("since", 0, "only records newer than this age (e.g. 1h)")
	limit := fs.Int("limit", 50, "maximum records to print")

	return &cli.Command{
		Name:    "tail",
		Summary: "Print recent authorization decisions, newest first",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Paths.TraceDB == "" {
				return fmt.Errorf("no trace_db path configured")
			}

			filter := audit.TraceFilter{
				Actor:        *actor,
				CapabilityID: *capabilityID,
				Limit:        *limit,
			}
			switch *decisionFlag {
			case "":
			case "allow":
				d := schema.Allow
				filter.Decision = &d
			case "deny":
				d := schema.Deny
				filter.Decision = &d
			default:
				return fmt.Errorf("unknown decision %q (want allow or deny)", *decisionFlag)
			}
			if *since > 0 {
				filter.Since = time.Now().Add(-*since)
			}

			store, err := audit.OpenTraceStore(audit.TraceStoreOptions{
				Path:   cfg.Paths.TraceDB,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Query(ctx, filter)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTOR\tCAPABILITY\tDECISION\tREASON")
			for _, rec := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					rec.Timestamp.Format(time.RFC3339),
					rec.Actor, rec.CapabilityID, rec.Decision, rec.Reason)
			}
			return tw.Flush()
		},
	}
}
