// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

func TestLoadAbsentFile(t *testing.T) {
	var principals []schema.Principal
	found, err := Load(filepath.Join(t.TempDir(), "principals.json"), &principals)
	if err != nil {
		t.Fatalf("absent file returned error: %v", err)
	}
	if found {
		t.Error("absent file reported found")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "principals.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	var principals []schema.Principal
	_, err := Load(path, &principals)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("malformed file error = %v, want *LoadError", err)
	}
	if loadErr.Path != path {
		t.Errorf("LoadError.Path = %q", loadErr.Path)
	}
}

func TestLoadAcceptsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capability_acls.json")
	doc := `[
  // built-in help command stays public
  {
    "capability_id": "legacy.command.help",
    "visibility": "public",
  },
]`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	var acls []schema.CapabilityACL
	found, err := Load(path, &acls)
	if err != nil || !found {
		t.Fatalf("Load = %v, %v", found, err)
	}
	if len(acls) != 1 || acls[0].CapabilityID != "legacy.command.help" {
		t.Errorf("parsed %+v", acls)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bindings.json")
	in := []schema.CredentialBinding{{
		ID:          "b-1",
		PrincipalID: schema.SystemPrincipalID,
		Channel:     "cli",
		Type:        schema.BindingOSUser,
		Subject:     "local:*",
		Active:      true,
	}}
	if err := Save(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	var out []schema.CredentialBinding
	found, err := Load(path, &out)
	if err != nil || !found {
		t.Fatalf("Load = %v, %v", found, err)
	}
	if len(out) != 1 || out[0].Subject != "local:*" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}
