package cryptoprim

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CanonicalJSON renders v as RFC 8785 (JSON Canonicalization Scheme)
// bytes: object members sorted by UTF-16 code unit, no insignificant
// whitespace, and numbers formatted per the ECMAScript ToString
// algorithm JCS mandates. The audit envelope is signed over this
// encoding so that two semantically identical records always produce
// byte-identical, independently-verifiable signing input regardless of
// which Go map iteration order or json.Marshal field ordering produced
// them.
//
// No library in the example pack implements JCS; this hand-rolled
// encoder is the one place the audit engine knowingly falls back to the
// standard library rather than a third-party dependency (see
// DESIGN.md).
func CanonicalJSON(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	if err := encode(&b, normalized); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// normalize round-trips v through encoding/json so that struct values
// (with their json tags) are reduced to the same any-tree
// (map[string]any / []any / float64 / string / bool / nil) a parsed
// JSON document would produce, which encode then walks uniformly.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: marshal for canonicalization: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("cryptoprim: unmarshal for canonicalization: %w", err)
	}
	return out, nil
}

func encode(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		encodeString(b, val)
	case float64:
		encodeNumber(b, val)
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encode(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return utf16Less(keys[i], keys[j]) })
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeString(b, k)
			b.WriteByte(':')
			if err := encode(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("cryptoprim: cannot canonicalize value of type %T", v)
	}
	return nil
}

// utf16Less compares two strings by UTF-16 code unit, per RFC 8785
// §3.2.3's member-ordering rule.
func utf16Less(a, b string) bool {
	ua, ub := toUTF16(a), toUTF16(b)
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

func toUTF16(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		out = append(out, uint16(r))
	}
	return out
}

func encodeString(b *strings.Builder, s string) {
	raw, _ := json.Marshal(s)
	b.Write(raw)
}

// encodeNumber formats f per the ECMAScript Number::toString algorithm
// JCS requires: the shortest decimal representation that round-trips,
// with no exponent for magnitudes in [1e-6, 1e21).
func encodeNumber(b *strings.Builder, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		b.WriteString("0")
		return
	}
	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
		return
	}
	// ECMAScript writes the exponent without Go's zero padding ("1e-7",
	// not "1e-07").
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	b.WriteString(mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0"))
}
