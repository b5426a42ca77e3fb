// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package capability implements the capability registry: the indexed
// store of capability descriptors and the text-routing lookups over
// it.
//
// Three indexes are maintained: by id, by command alias (exact match
// after normalization), and by message trigger (case-insensitive
// substring match, longest trigger first, so a more specific trigger
// always beats a shorter one that happens to be its substring).
//
// Registration is idempotent for identical content and refuses to
// replace or remove immutable descriptors; the built-in legacy
// commands register as immutable so nothing can shadow /help.
package capability
