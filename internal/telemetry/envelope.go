package telemetry

import (
	"encoding/json"
	"fmt"
)

// Frame is one decoded channel message: the effective type, its payload and
// the object that carried the type. Header holds top-level keys such as a log
// message or a replay action; for wrapped frames it is the inner object.
type Frame struct {
	Type    Kind
	Payload json.RawMessage
	Header  Fields
	Wrapped bool
}

var emptyObject = json.RawMessage("{}")

// Decode parses a textual frame. A wrapper envelope is unwrapped one level:
// the inner type defaults to "unknown" and the inner payload falls back to the
// inner object itself, then to an empty object.
func Decode(raw []byte) (Frame, error) {
	if !isObject(raw) {
		return Frame{}, &DecodeError{Size: len(raw), Err: ErrMalformedFrame}
	}
	var top Fields
	if err := json.Unmarshal(raw, &top); err != nil {
		return Frame{}, &DecodeError{Size: len(raw), Err: fmt.Errorf("%w: %v", ErrMalformedFrame, err)}
	}

	typ := Kind(top.String("type").Or(""))
	if typ != KindWrapper {
		return Frame{Type: typ, Payload: top["data"], Header: top}, nil
	}

	frame := Frame{Type: KindUnknown, Payload: emptyObject, Header: Fields{}, Wrapped: true}
	outer, ok := top["data"]
	if !ok || !truthy(outer) {
		return frame, nil
	}
	if inner, ok := top.Object("data"); ok {
		frame.Header = inner
		if t := inner.String("type").Or(""); t != "" {
			frame.Type = Kind(t)
		}
		if p, ok := inner["data"]; ok && truthy(p) {
			frame.Payload = p
			return frame, nil
		}
	}
	frame.Payload = outer
	return frame, nil
}

// DecodeValue accepts a frame that is already structured (a map, struct or
// raw bytes) and decodes it the same way as text.
func DecodeValue(v any) (Frame, error) {
	switch t := v.(type) {
	case string:
		return Decode([]byte(t))
	case []byte:
		return Decode(t)
	case json.RawMessage:
		return Decode(t)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Frame{}, &DecodeError{Err: fmt.Errorf("%w: %v", ErrMalformedFrame, err)}
	}
	return Decode(raw)
}
