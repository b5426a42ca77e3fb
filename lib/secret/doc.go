// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds binding secrets (API keys, account passwords)
// in memory that is locked against swap and excluded from core dumps.
//
// [Buffer] allocates outside the Go heap via mmap(MAP_ANONYMOUS),
// pins the pages with mlock, and marks them MADV_DONTDUMP. On Close
// the contents are zeroed, unlocked, and unmapped. The garbage
// collector never sees the region, so it cannot copy the secret
// around the heap.
//
// Secrets enter through [ReadFromPath] (file, or "-" for stdin) or
// [ReadInteractive] (terminal prompt with echo off, plain line read
// for piped input). Both return a Buffer the caller must Close once
// the secret has been hashed into a credential binding.
package secret
