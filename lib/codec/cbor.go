// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Gatehouse's canonical CBOR encoding.
//
// The audit trace store persists decision records as CBOR. Encoding is
// deterministic (RFC 8949 §4.2 Core Deterministic Encoding) so the same
// logical record always produces identical bytes, which makes stored
// records content-addressable and diff-friendly.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Enum types in lib/schema (Assurance, Decision) implement
	// encoding.TextMarshaler; serialize them as CBOR text strings so
	// the stored form matches the JSON form.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Gatehouse never uses non-string map keys. Decoding into an
		// any-typed target must produce map[string]any, not the CBOR
		// default map[any]any, so decoded metadata bags interoperate
		// with encoding/json.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
