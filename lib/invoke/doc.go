// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package invoke dispatches authorized capability invocations to
// substrate handlers: the symbolic, llm, shell, agent, and
// external-service execution mechanisms the embedding process plugs
// in. The engine re-checks required permissions even though the
// orchestrator authorizes first, runs the descriptor's named hook
// pipeline around dispatch, and treats a disabled capability exactly
// like an absent one so callers cannot probe for switched-off
// functionality.
package invoke
