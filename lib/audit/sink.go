// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gatehouse-dev/gatehouse/lib/schema"
)

// Sink receives decision records. Implementations must be safe for
// concurrent Emit calls. Emit after Close returns an error.
type Sink interface {
	Emit(rec Record) error
	Close() error
}

// SlogSink writes records to a structured logger. Denies log at Warn,
// allows at Info.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink builds a SlogSink. A nil logger discards.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SlogSink{logger: logger}
}

// Emit logs the record.
func (s *SlogSink) Emit(rec Record) error {
	level := slog.LevelInfo
	if rec.Decision != schema.Allow {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "authorization decision",
		"actor", rec.Actor,
		"session_id", rec.SessionID,
		"channel", rec.Channel,
		"capability", rec.CapabilityID,
		"permission", string(rec.Permission),
		"decision", rec.Decision.String(),
		"reason", rec.Reason,
		"rule_id", rec.RuleID,
		"assurance", rec.Assurance.String(),
	)
	return nil
}

// Close is a no-op; the logger outlives the sink.
func (s *SlogSink) Close() error { return nil }

// MultiSink fans every record out to all child sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink composes sinks. Nil entries are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

// Emit delivers to every sink and joins the failures. A failing sink
// does not stop delivery to the others.
func (m *MultiSink) Emit(rec Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins the failures.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
