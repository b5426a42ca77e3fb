// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// Assurance is the ranked confidence in an identity assertion. Higher
// values mean a stronger authentication event produced the assertion.
// The zero value is AssuranceNone, so an unauthenticated session starts
// at the bottom of the ranking without any explicit initialization.
type Assurance int

const (
	// AssuranceNone means no authentication event has occurred. This
	// is the assurance of the anonymous principal.
	AssuranceNone Assurance = iota

	// AssuranceLow means a weak, channel-asserted claim: an unverified
	// chat account, a plain API key over an untrusted link.
	AssuranceLow

	// AssuranceMedium means a verified single-factor authentication:
	// password login, verified phone or email, OS user on a local socket.
	AssuranceMedium

	// AssuranceHigh means a strong authentication event: multi-factor
	// login or an explicit interactive elevation within the session.
	AssuranceHigh

	// AssuranceCryptographic means the claim was proven with a
	// cryptographic credential (signed token, mutual TLS).
	AssuranceCryptographic
)

var assuranceNames = map[Assurance]string{
	AssuranceNone:          "none",
	AssuranceLow:           "low",
	AssuranceMedium:        "medium",
	AssuranceHigh:          "high",
	AssuranceCryptographic: "cryptographic",
}

// String returns the lowercase level name ("none" ... "cryptographic").
func (a Assurance) String() string {
	if name, ok := assuranceNames[a]; ok {
		return name
	}
	return fmt.Sprintf("assurance(%d)", int(a))
}

// Meets reports whether the level satisfies a required minimum.
func (a Assurance) Meets(min Assurance) bool {
	return a >= min
}

// ParseAssurance converts a level name to an Assurance. The empty
// string parses to AssuranceNone so that omitted JSON fields take the
// safe default.
func ParseAssurance(s string) (Assurance, error) {
	if s == "" {
		return AssuranceNone, nil
	}
	for level, name := range assuranceNames {
		if name == s {
			return level, nil
		}
	}
	return AssuranceNone, fmt.Errorf("unknown assurance level %q", s)
}

// MarshalText implements encoding.TextMarshaler. Assurance serializes
// as its level name in both JSON and CBOR.
func (a Assurance) MarshalText() ([]byte, error) {
	name, ok := assuranceNames[a]
	if !ok {
		return nil, fmt.Errorf("invalid assurance level %d", int(a))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Assurance) UnmarshalText(text []byte) error {
	level, err := ParseAssurance(string(text))
	if err != nil {
		return err
	}
	*a = level
	return nil
}
