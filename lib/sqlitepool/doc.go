// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the gateway's SQLite connection pool.
//
// The audit trace store is the primary consumer: decision records are
// append-heavy and queried rarely (operator tooling, `gatehouse audit
// tail`), which shapes the pragma choices below. The package wraps
// zombiezen.com/go/sqlite and stays deliberately thin: standard
// pragmas, a fixed-size pool, and the underlying types exposed
// directly. Callers write SQL with sqlitex; there is no query builder
// and no ORM.
//
// Connections use WAL journaling (readers never block the audit
// writer), synchronous=NORMAL (records survive a process crash; the
// JSONL audit file covers anything stronger), a 5 second busy timeout,
// and in-memory temp storage.
//
// Callers Take a connection, do their work, and Put it back.
// Connections are not safe for concurrent use; the pool is.
package sqlitepool
