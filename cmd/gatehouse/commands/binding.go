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
	"github.com/gatehouse-dev/gatehouse/lib/secret"
)

// secretBindingTypes are the binding types that carry a verifiable
// secret. The rest are vouched for by the channel itself.
var secretBindingTypes = map[schema.BindingType]bool{
	schema.BindingAPIKey:  true,
	schema.BindingAccount: true,
}

func bindingCommand() *cli.Command {
	return &cli.Command{
		Name:    "binding",
		Summary: "Manage credential bindings",
		Subcommands: []*cli.Command{
			bindingAddCommand(),
			bindingListCommand(),
			bindingDeleteCommand(),
		},
	}
}

func bindingAddCommand() *cli.Command {
	fs := pflag.NewFlagSet("binding add", pflag.ContinueOnError)
	configPath := configFlag(fs)
	channel := fs.String("channel", "", "channel the binding applies to")
	btype := fs.String("type", string(schema.BindingAccount), "binding type (account, oauth, api-key, phone, email, os-user, local-socket)")
	subject := fs.String("subject", "", "channel-native identity, may end in * for prefix matching")
	scopes := fs.StringSlice("scope", nil, "permission granted on resolution (repeatable)")
	expires := fs.String("expires", "", "RFC 3339 expiry (omit for permanent)")
	secretFile := fs.String("secret-file", "", "read the binding secret from this file instead of prompting (\"-\" for stdin)")

	return &cli.Command{
		Name:    "add",
		Summary: "Bind a channel identity to a principal",
		Usage:   "gatehouse binding add <principal-id> --channel <ch> --subject <subject> [flags]",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one principal id required")
			}
			if *channel == "" || *subject == "" {
				return fmt.Errorf("--channel and --subject are required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			principals, _, err := openState(cfg, logger)
			if err != nil {
				return err
			}

			binding := schema.CredentialBinding{
				PrincipalID: args[0],
				Channel:     *channel,
				Type:        schema.BindingType(*btype),
				Subject:     *subject,
				ExpiresAt:   *expires,
				Active:      true,
			}
			for _, s := range *scopes {
				binding.Scopes = append(binding.Scopes, schema.Permission(s))
			}

			if secretBindingTypes[binding.Type] {
				buf, err := readBindingSecret(*secretFile)
				if err != nil {
					return err
				}
				material := buf.String()
				hash, err := principal.HashSecret(material)
				if err != nil {
					buf.Close()
					return err
				}
				binding.SecretHash = hash
				fmt.Printf("secret fingerprint: %s\n", principal.Fingerprint(material))
				buf.Close()
			}

			if err := principals.RegisterBinding(binding); err != nil {
				return err
			}
			fmt.Printf("bound %s on %s to %s\n", *subject, *channel, args[0])
			return nil
		},
	}
}

// readBindingSecret reads the secret from --secret-file when given,
// otherwise prompts on the terminal.
func readBindingSecret(path string) (*secret.Buffer, error) {
	if path != "" {
		return secret.ReadFromPath(path)
	}
	return secret.ReadInteractive("Secret: ")
}

func bindingListCommand() *cli.Command {
	fs := pflag.NewFlagSet("binding list", pflag.ContinueOnError)
	configPath := configFlag(fs)
	channel := fs.String("channel", "", "filter by channel")

	return &cli.Command{
		Name:    "list",
		Summary: "List credential bindings",
		Usage:   "gatehouse binding list [<principal-id>] [flags]",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			principals, _, err := openState(cfg, logger)
			if err != nil {
				return err
			}

			principalID := ""
			if len(args) > 0 {
				principalID = args[0]
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPRINCIPAL\tCHANNEL\tTYPE\tSUBJECT\tACTIVE\tLAST USED")
			for _, b := range principals.ListBindings(principalID, *channel) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
					b.ID, b.PrincipalID, b.Channel, b.Type, b.Subject, b.Active, b.LastUsedAt)
			}
			return tw.Flush()
		},
	}
}

func bindingDeleteCommand() *cli.Command {
	fs := pflag.NewFlagSet("binding delete", pflag.ContinueOnError)
	configPath := configFlag(fs)

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a credential binding",
		Usage:   "gatehouse binding delete <binding-id>",
		Flags:   func() *pflag.FlagSet { return fs },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one binding id required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			principals, _, err := openState(cfg, logger)
			if err != nil {
				return err
			}
			if err := principals.DeleteBinding(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted binding %s\n", args[0])
			return nil
		},
	}
}
