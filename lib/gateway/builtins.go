// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import "github.com/gatehouse-dev/gatehouse/lib/schema"

// BuiltinCapabilities returns the immutable legacy command descriptors
// every gateway registers at startup. The public four (help, about,
// version, login) synthesize public ACLs; configure synthesizes an
// operator-only ACL. startSession is an alias of login, not a
// capability of its own.
func BuiltinCapabilities() []schema.CapabilityDescriptor {
	use := schema.PermissionSet{schema.PermissionUse}
	return []schema.CapabilityDescriptor{
		{
			ID:                  "legacy.command.help",
			Name:                "Help",
			Description:         "List available commands and capabilities.",
			Kind:                schema.KindAtomic,
			Substrate:           schema.SubstrateSymbolic,
			Commands:            []string{"help", "h"},
			RequiredPermissions: use,
			Enabled:             true,
			Immutable:           true,
		},
		{
			ID:                  "legacy.command.about",
			Name:                "About",
			Description:         "Describe this gateway.",
			Kind:                schema.KindAtomic,
			Substrate:           schema.SubstrateSymbolic,
			Commands:            []string{"about"},
			RequiredPermissions: use,
			Enabled:             true,
			Immutable:           true,
		},
		{
			ID:                  "legacy.command.version",
			Name:                "Version",
			Description:         "Report the gateway version.",
			Kind:                schema.KindAtomic,
			Substrate:           schema.SubstrateSymbolic,
			Commands:            []string{"version"},
			RequiredPermissions: use,
			Enabled:             true,
			Immutable:           true,
		},
		{
			ID:                  "legacy.command.login",
			Name:                "Login",
			Description:         "Authenticate and elevate the session.",
			Kind:                schema.KindAtomic,
			Substrate:           schema.SubstrateSymbolic,
			Commands:            []string{"login", "startSession"},
			RequiredPermissions: use,
			Enabled:             true,
			Immutable:           true,
		},
		{
			ID:                  "legacy.command.configure",
			Name:                "Configure",
			Description:         "Operator configuration surface.",
			Kind:                schema.KindAtomic,
			Substrate:           schema.SubstrateSymbolic,
			Commands:            []string{"configure"},
			RequiredPermissions: schema.PermissionSet{schema.PermissionUse, schema.PermissionAdmin},
			Enabled:             true,
			Immutable:           true,
		},
	}
}
