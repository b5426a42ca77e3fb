// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package docstore loads and saves the registry documents:
// principals.json, credential_bindings.json, and capability_acls.json.
//
// Documents are JSON extended with // line comments, /* block
// comments */, and trailing commas; operators hand-edit these files,
// and annotation belongs next to the entry it explains. Comments are
// stripped on load; Save writes plain JSON.
//
// An absent file is not an error: registries start empty and
// synthesize defaults. A malformed file is a LoadError; fatal for
// that one registry, which then starts empty rather than taking the
// process down.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// LoadError reports a document that exists but cannot be parsed. The
// registry it backs starts empty; the caller decides whether to log
// and continue or refuse to start.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the document at path into v. Returns (false, nil) when
// the file does not exist, (true, nil) on success, and (false,
// *LoadError) when the file exists but cannot be read or parsed.
func Load(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &LoadError{Path: path, Err: err}
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
		return false, &LoadError{Path: path, Err: err}
	}
	return true, nil
}

// Save writes v as indented JSON to path atomically: the document is
// written to a temporary file in the same directory and renamed into
// place, so a reader never observes a partial write. The parent
// directory is created if missing. Mode 0600; binding documents
// contain secret hashes.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode on %s: %w", tmpPath, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
