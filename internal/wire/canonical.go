// Package wire implements the canonical deep-serialisation contract shared by
// cell, cache and frameproxy: stable key ordering in mappings and a
// reference-free comparison for leaves, per spec §9 "Structural value
// equality".
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Canonicalize produces the deterministic byte form of v used for equality
// and hashing. encoding/json already sorts map[string]any keys, which gives
// us stable ordering for free. The same form is the text Serialise returns;
// gjson only validates text in Deserialise and sjson only backs Patch.
func Canonicalize(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: canonicalize: %w", err)
	}
	return b, nil
}

// Equal reports whether a and b serialise identically in canonical form.
// Two proposed cell values that serialise identically are considered equal
// and must not trigger a transition (spec §3). The xxhash digests are
// cheap to compute relative to the byte compare that follows and let a
// mismatch on large values (the common case for a changing cell) short
// the full comparison.
func Equal(a, b any) bool {
	ab, aerr := Canonicalize(a)
	bb, berr := Canonicalize(b)
	if aerr != nil || berr != nil {
		return false
	}
	if xxhash.Sum64(ab) != xxhash.Sum64(bb) {
		return false
	}
	return string(ab) == string(bb)
}

// Hash returns a fast, non-cryptographic digest of v's canonical form.
func Hash(v any) (uint64, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

// Serialise renders v as UTF-8 text using the canonical form. It is the
// default used by cell.CacheIdentity when a cell does not configure its own
// serialiser.
func Serialise(v any) (string, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deserialise parses text produced by Serialise (or by any producer emitting
// JSON) back into a generic any value, preserving object key access via
// gjson/sjson-compatible representations downstream.
func Deserialise(text string) (any, error) {
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("wire: invalid json: %q", text)
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("wire: deserialise: %w", err)
	}
	return v, nil
}

// Patch sets a dotted path within a canonical JSON text blob without
// re-marshalling the whole value. Nothing in this module calls it.
func Patch(text, path string, value any) (string, error) {
	out, err := sjson.Set(text, path, value)
	if err != nil {
		return "", fmt.Errorf("wire: patch: %w", err)
	}
	return out, nil
}
