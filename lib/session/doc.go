// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package session holds per-conversation authorization state: the
// resolved principal, the current assurance level, the granted
// permission set, and the cached capability visibility/access sets.
//
// Each session carries its own mutex, so concurrent requests for the
// same conversation serialize their read-modify-write of the caches
// while requests for different sessions run fully in parallel. The
// store shards its index the same way.
//
// The capability caches are only valid for the (principal, assurance)
// pair they were computed under. ReplaceCapabilityCaches records that
// pair, and CachesValid compares against it, so a stale cache is
// detectable instead of silently trusted. The access manager is the
// only writer of these caches after session creation.
package session
