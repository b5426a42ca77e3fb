// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the gateway configuration.
//
// Configuration comes from a single YAML file named by the
// GATEHOUSE_CONFIG environment variable or the --config flag. There is
// no discovery and no environment-variable overrides: one file, read
// once, is the whole configuration. Path fields expand ${HOME} for
// portability; nothing else is expanded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "24h". A bare integer is taken as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// Std returns the standard library form.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the gateway's configuration.
type Config struct {
	// Paths locates the persistent state documents.
	Paths PathsConfig `yaml:"paths"`

	// Session configures conversation state.
	Session SessionConfig `yaml:"session"`

	// Enforcement configures policy enforcement.
	Enforcement EnforcementConfig `yaml:"enforcement"`

	// Audit configures decision recording.
	Audit AuditConfig `yaml:"audit"`

	// Channels is the transport allow-list. Empty allows every
	// channel.
	Channels []string `yaml:"channels,omitempty"`
}

// PathsConfig locates state on disk.
type PathsConfig struct {
	// State is the directory holding principals.json, credential_bindings.json,
	// and capability_acls.json.
	State string `yaml:"state"`

	// AuditDir holds the JSONL audit log and its rotated segments.
	AuditDir string `yaml:"audit_dir"`

	// TraceDB is the SQLite decision trace database.
	TraceDB string `yaml:"trace_db"`
}

// PrincipalsFile returns the principals document path.
func (p PathsConfig) PrincipalsFile() string { return filepath.Join(p.State, "principals.json") }

// BindingsFile returns the credential bindings document path.
func (p PathsConfig) BindingsFile() string { return filepath.Join(p.State, "credential_bindings.json") }

// ACLsFile returns the capability ACLs document path.
func (p PathsConfig) ACLsFile() string { return filepath.Join(p.State, "capability_acls.json") }

// AuditFile returns the active JSONL audit log path.
func (p PathsConfig) AuditFile() string { return filepath.Join(p.AuditDir, "audit.jsonl") }

// SessionConfig configures conversation state.
type SessionConfig struct {
	// TTL is the idle lifetime of a session. Zero means 24h.
	TTL Duration `yaml:"ttl"`

	// ReapInterval is how often the expiry reaper runs. Zero means 5m.
	ReapInterval Duration `yaml:"reap_interval"`
}

// EnforcementConfig configures the policy engine.
type EnforcementConfig struct {
	// Enabled is the global enforcement switch. Disabled enforcement
	// logs would-be decisions and allows everything.
	Enabled bool `yaml:"enabled"`

	// ChannelOverrides flips enforcement per channel name.
	ChannelOverrides map[string]bool `yaml:"channel_overrides,omitempty"`
}

// AuditConfig selects decision sinks. All selected sinks receive every
// decision.
type AuditConfig struct {
	// Log mirrors decisions to the structured log.
	Log bool `yaml:"log"`

	// File enables the JSONL sink in Paths.AuditDir.
	File bool `yaml:"file"`

	// Trace enables the SQLite trace store at Paths.TraceDB.
	Trace bool `yaml:"trace"`

	// MaxSegmentBytes is the JSONL rotation threshold. Zero uses the
	// sink default.
	MaxSegmentBytes int64 `yaml:"max_segment_bytes"`
}

// Default returns the base configuration merged under any loaded file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".local", "share", "gatehouse")

	return &Config{
		Paths: PathsConfig{
			State:    filepath.Join(root, "state"),
			AuditDir: filepath.Join(root, "audit"),
			TraceDB:  filepath.Join(root, "audit", "trace.db"),
		},
		Session: SessionConfig{
			TTL:          Duration(24 * time.Hour),
			ReapInterval: Duration(5 * time.Minute),
		},
		Enforcement: EnforcementConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Log:  true,
			File: true,
		},
	}
}

// Load reads the file named by GATEHOUSE_CONFIG. Fails when the
// variable is unset: configuration is explicit or absent, never
// discovered.
func Load() (*Config, error) {
	path := os.Getenv("GATEHOUSE_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("GATEHOUSE_CONFIG is not set; point it at your gatehouse.yaml or pass --config")
	}
	return LoadFile(path)
}

// LoadFile reads one configuration file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Paths.State == "" {
		return fmt.Errorf("paths.state is required")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative")
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = Duration(24 * time.Hour)
	}
	if c.Session.ReapInterval <= 0 {
		c.Session.ReapInterval = Duration(5 * time.Minute)
	}
	if c.Audit.File && c.Paths.AuditDir == "" {
		return fmt.Errorf("audit.file requires paths.audit_dir")
	}
	if c.Audit.Trace && c.Paths.TraceDB == "" {
		return fmt.Errorf("audit.trace requires paths.trace_db")
	}
	return nil
}

// ChannelAllowed reports whether a channel passes the allow-list.
func (c *Config) ChannelAllowed(channel string) bool {
	if len(c.Channels) == 0 {
		return true
	}
	for _, allowed := range c.Channels {
		if allowed == channel {
			return true
		}
	}
	return false
}

func (c *Config) expandVariables() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	expand := func(p string) string {
		return strings.ReplaceAll(p, "${HOME}", home)
	}
	c.Paths.State = expand(c.Paths.State)
	c.Paths.AuditDir = expand(c.Paths.AuditDir)
	c.Paths.TraceDB = expand(c.Paths.TraceDB)
}
