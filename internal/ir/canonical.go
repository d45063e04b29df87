package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical encodes v as RFC 8785 canonical JSON. Event identity and
// golden traces are both built on it.
//
// It differs from json.Marshal in four ways: object keys are ordered by
// UTF-16 code units, HTML characters are not escaped, strings are NFC
// normalized, and floats and null are rejected.
func MarshalCanonical(v any) ([]byte, error) {
	return appendCanonical(nil, v)
}

func appendCanonical(dst []byte, v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)

	case string:
		return appendString(dst, val)
	case IRString:
		return appendString(dst, string(val))
	case ReplicaID:
		return appendString(dst, string(val))
	case EventID:
		return appendString(dst, string(val))

	case int:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(dst, val, 10), nil
	case IRInt:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case uint64:
		return strconv.AppendUint(dst, val, 10), nil

	case bool:
		return strconv.AppendBool(dst, val), nil
	case IRBool:
		return strconv.AppendBool(dst, bool(val)), nil

	case Clock:
		return appendArray(dst, val)
	case []uint64:
		return appendArray(dst, val)
	case []string:
		return appendArray(dst, val)
	case []any:
		return appendArray(dst, val)
	case IRArray:
		return appendArray(dst, val)

	case IRObject:
		return appendObject(dst, val)
	case map[string]any:
		return appendObject(dst, val)

	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func appendArray[E any](dst []byte, elems []E) ([]byte, error) {
	dst = append(dst, '[')
	for i, elem := range elems {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendCanonical(dst, elem); err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	return append(dst, ']'), nil
}

func appendObject[V any](dst []byte, obj map[string]V) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	dst = append(dst, '{')
	for i, k := range keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendString(dst, k); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		dst = append(dst, ':')
		if dst, err = appendCanonical(dst, obj[k]); err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	return append(dst, '}'), nil
}

// appendString appends s, NFC normalized, as a JSON string in which only
// quote, backslash and control characters are escaped.
func appendString(dst []byte, s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	encoded := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return appendUnescapedSeparators(dst, encoded), nil
}

// appendUnescapedSeparators copies an encoded JSON string to dst, turning
// the \u2028 and \u2029 escapes encoding/json emits back into literal
// characters. Other escape pairs are copied whole, so an escaped backslash
// followed by "u2028" is left alone.
func appendUnescapedSeparators(dst, encoded []byte) []byte {
	if !bytes.Contains(encoded, []byte(`\u202`)) {
		return append(dst, encoded...)
	}
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '\\' || i+1 == len(encoded) {
			dst = append(dst, c)
			continue
		}
		if rest := encoded[i+1:]; len(rest) >= 5 && string(rest[:4]) == "u202" {
			switch rest[4] {
			case '8':
				dst = append(dst, "\u2028"...)
				i += 5
				continue
			case '9':
				dst = append(dst, "\u2029"...)
				i += 5
				continue
			}
		}
		dst = append(dst, c, encoded[i+1])
		i++
	}
	return dst
}
