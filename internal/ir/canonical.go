package ir

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON.
// This is the ONLY serialization used for content-addressed identity and
// golden traces.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping, and U+2028/U+2029 are written literally
//  3. Strings (keys included) are NFC normalized
//  4. Floats and null are rejected
//
// v may be a Value or anything FromAny accepts.
func MarshalCanonical(v any) ([]byte, error) {
	val, err := FromAny(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case String:
		writeCanonicalString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range canonicalKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k.normalized)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k.original]); err != nil {
				return fmt.Errorf("value for key %q: %w", k.original, err)
			}
		}
		buf.WriteByte('}')
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

type canonicalKey struct {
	original   string
	normalized string
}

// canonicalKeys orders keys by their NFC form, since that is what gets
// written.
func canonicalKeys(obj Object) []canonicalKey {
	byNormalized := make(map[string]string, len(obj))
	norms := make(Object, len(obj))
	for k := range obj {
		n := norm.NFC.String(k)
		byNormalized[n] = k
		norms[n] = nil
	}
	sorted := norms.SortedKeys()
	out := make([]canonicalKey, len(sorted))
	for i, n := range sorted {
		out[i] = canonicalKey{original: byNormalized[n], normalized: n}
	}
	return out
}

const hexDigits = "0123456789abcdef"

// writeCanonicalString escapes only what RFC 8785 requires: the quote, the
// backslash and control characters below U+0020.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[r>>4])
			buf.WriteByte(hexDigits[r&0xF])
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

// NormalizeString returns the NFC form of s. Values are compared and stored
// in this form so that visually identical labels match.
func NormalizeString(s string) string {
	return norm.NFC.String(s)
}
