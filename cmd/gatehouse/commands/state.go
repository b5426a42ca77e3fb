// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/gatehouse-dev/gatehouse/lib/acl"
	"github.com/gatehouse-dev/gatehouse/lib/config"
	"github.com/gatehouse-dev/gatehouse/lib/principal"
)

// configFlag adds the shared --config flag to a flag set and returns
// the destination.
func configFlag(fs *pflag.FlagSet) *string {
	return fs.String("config", "", "path to gatehouse.yaml (default: $GATEHOUSE_CONFIG)")
}

// loadConfig resolves the configuration from --config, the
// environment, or defaults when neither names a file.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("GATEHOUSE_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// openState loads the principal and ACL registries backed by the
// configured state documents.
func openState(cfg *config.Config, logger *slog.Logger) (*principal.Registry, *acl.Registry, error) {
	principals, err := principal.NewRegistry(principal.Options{
		PrincipalsPath: cfg.Paths.PrincipalsFile(),
		BindingsPath:   cfg.Paths.BindingsFile(),
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening principal registry: %w", err)
	}
	acls, err := acl.NewRegistry(acl.Options{
		Path:   cfg.Paths.ACLsFile(),
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening ACL registry: %w", err)
	}
	return principals, acls, nil
}
