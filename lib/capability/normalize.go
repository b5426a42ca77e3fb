// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import "strings"

// NormalizeCommand reduces raw command text to the bare alias used for
// index lookup: the first whitespace-delimited token, with a leading
// "/" or "--" prefix and any query-string suffix ("?key=value")
// removed. Case is preserved; command aliases like "startSession"
// are case-sensitive.
//
//	"/help"                → "help"
//	"--version"            → "version"
//	"/status?verbose=1 now" → "status"
func NormalizeCommand(text string) string {
	token := strings.TrimSpace(text)
	if i := strings.IndexAny(token, " \t\n"); i >= 0 {
		token = token[:i]
	}
	if after, ok := strings.CutPrefix(token, "--"); ok {
		token = after
	} else {
		token = strings.TrimPrefix(token, "/")
	}
	if i := strings.IndexByte(token, '?'); i >= 0 {
		token = token[:i]
	}
	return token
}

// NormalizeTrigger lowercases a trigger or message for the substring
// index and collapses runs of whitespace to single spaces, so trigger
// phrases match across line breaks.
func NormalizeTrigger(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
