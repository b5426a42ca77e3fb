// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit records authorization decisions. Every decision the
// gateway makes, ALLOW and DENY alike, becomes a Record and flows to a
// Sink: the operator's log (SlogSink), an append-only JSONL file with
// size-based rotation (FileSink), a queryable SQLite trace (TraceStore),
// or all of them (MultiSink).
//
// The file sink writes asynchronously behind a bounded queue so the
// request path never waits on disk; Emit blocks only when the queue is
// full, trading latency for a complete trail.
package audit
