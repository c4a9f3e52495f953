package telemetry

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Fields is a decoded JSON object whose values are coerced lazily. A key is
// present when it appears in the object; coercion decides whether a present
// value is usable.
type Fields map[string]json.RawMessage

// ParseFields decodes raw as a JSON object. Anything other than an object
// yields an empty, non-nil Fields so that merges become no-ops.
func ParseFields(raw json.RawMessage) Fields {
	f := Fields{}
	if !isObject(raw) {
		return f
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fields{}
	}
	return f
}

// Has reports whether key is present, including an explicit null.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Float coerces key with decimal-prefix parsing. Null, booleans, unparsable
// strings and non-finite results are absent.
func (f Fields) Float(key string) Opt[float64] {
	raw, ok := f[key]
	if !ok {
		return Opt[float64]{}
	}
	return floatValue(raw)
}

// Int coerces key with integer-prefix parsing, truncating numbers toward zero.
func (f Fields) Int(key string) Opt[int64] {
	raw, ok := f[key]
	if !ok {
		return Opt[int64]{}
	}
	return intValue(raw)
}

// Bool coerces key by truthiness. A present null is false.
func (f Fields) Bool(key string) Opt[bool] {
	raw, ok := f[key]
	if !ok {
		return Opt[bool]{}
	}
	return Some(truthy(raw))
}

// String returns key when it holds a JSON string, or the literal text of a
// number or boolean.
func (f Fields) String(key string) Opt[string] {
	raw, ok := f[key]
	if !ok {
		return Opt[string]{}
	}
	return stringValue(raw)
}

// ClearableString is String, except that a present null yields "" so the
// producer can clear a previously reported value.
func (f Fields) ClearableString(key string) Opt[string] {
	if raw, ok := f[key]; ok && isNull(raw) {
		return Some("")
	}
	return f.String(key)
}

// Array returns the elements of key when it holds a JSON array.
func (f Fields) Array(key string) ([]json.RawMessage, bool) {
	raw, ok := f[key]
	if !ok {
		return nil, false
	}
	return arrayValue(raw)
}

// Object returns key decoded as an object when it holds one.
func (f Fields) Object(key string) (Fields, bool) {
	raw, ok := f[key]
	if !ok || !isObject(raw) {
		return nil, false
	}
	return ParseFields(raw), true
}

// Keys returns the present keys in no particular order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	return keys
}

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isObject(raw json.RawMessage) bool { return firstByte(raw) == '{' }

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func arrayValue(raw json.RawMessage) ([]json.RawMessage, bool) {
	if firstByte(raw) != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	return elems, true
}

func stringValue(raw json.RawMessage) Opt[string] {
	switch c := firstByte(raw); {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Opt[string]{}
		}
		return Some(s)
	case c == 't' || c == 'f' || c == '-' || (c >= '0' && c <= '9'):
		return Some(string(bytes.TrimSpace(raw)))
	}
	return Opt[string]{}
}

func floatValue(raw json.RawMessage) Opt[float64] {
	var text string
	switch c := firstByte(raw); {
	case c == '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return Opt[float64]{}
		}
		text = numericPrefix(strings.TrimSpace(text), true)
	case c == '-' || (c >= '0' && c <= '9'):
		text = string(bytes.TrimSpace(raw))
	default:
		return Opt[float64]{}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Opt[float64]{}
	}
	return Some(v)
}

func intValue(raw json.RawMessage) Opt[int64] {
	switch c := firstByte(raw); {
	case c == '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return Opt[int64]{}
		}
		v, err := strconv.ParseInt(numericPrefix(strings.TrimSpace(text), false), 10, 64)
		if err != nil {
			return Opt[int64]{}
		}
		return Some(v)
	case c == '-' || (c >= '0' && c <= '9'):
		f := floatValue(raw)
		if !f.OK || math.Abs(f.V) >= math.MaxInt64 {
			return Opt[int64]{}
		}
		return Some(int64(math.Trunc(f.V)))
	}
	return Opt[int64]{}
}

// numericPrefix returns the longest leading decimal literal of s, or "" when
// s does not start with one.
func numericPrefix(s string, fractional bool) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if !fractional {
		if digits == 0 {
			return ""
		}
		return s[:i]
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			digits++
		}
		i = j
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

func truthy(raw json.RawMessage) bool {
	switch c := firstByte(raw); {
	case c == 't':
		return true
	case c == 'f', c == 'n', c == 0:
		return false
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != ""
	case c == '[' || c == '{':
		return true
	default:
		v, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		return err == nil && v != 0 && !math.IsNaN(v)
	}
}
