package telemetry

import "encoding/json"

// binding maps one field of a typed payload to its wire encodings. Keys are
// applied in order New, Legacy, Array; see Slot.Resolve.
type binding[U, T any] struct {
	New    string
	Legacy string
	Array  string
	Index  int
	Slot   func(*U) *Slot[T]
}

type coercion[T any] func(json.RawMessage) Opt[T]

var (
	asFloat coercion[float64] = floatValue
	asInt   coercion[int]     = func(raw json.RawMessage) Opt[int] {
		v := intValue(raw)
		return Opt[int]{V: int(v.V), OK: v.OK}
	}
	asBool coercion[bool] = func(raw json.RawMessage) Opt[bool] { return Some(truthy(raw)) }
)

// bind fills the slots of u from f according to table. It is the single merge
// routine behind every typed payload.
//
// An array encoding that is present always produces a value: elements that
// are missing or unusable read as the zero value.
func bind[U, T any](f Fields, u *U, table []binding[U, T], c coercion[T]) {
	for _, b := range table {
		s := b.Slot(u)
		if b.New != "" {
			if raw, ok := f[b.New]; ok {
				s.New = c(raw)
				s.Seen = true
			}
		}
		if b.Legacy != "" {
			if raw, ok := f[b.Legacy]; ok {
				s.Legacy = c(raw)
				s.Seen = true
			}
		}
		if b.Array != "" {
			if elems, ok := f.Array(b.Array); ok {
				var zero T
				s.Array = Some(zero)
				s.Seen = true
				if b.Index < len(elems) {
					if v := c(elems[b.Index]); v.OK {
						s.Array = v
					}
				}
			}
		}
	}
}

// Precedence describes one row of a precedence table for diagnostics.
type Precedence struct {
	Field  string `json:"field"`
	New    string `json:"new,omitempty"`
	Legacy string `json:"legacy,omitempty"`
	Array  string `json:"array,omitempty"`
	Index  int    `json:"index,omitempty"`
}

func describe[U, T any](table []binding[U, T]) []Precedence {
	out := make([]Precedence, 0, len(table))
	for _, b := range table {
		field := b.New
		if field == "" {
			field = b.Legacy
		}
		p := Precedence{Field: field, New: b.New, Legacy: b.Legacy, Array: b.Array}
		if b.Array != "" {
			p.Index = b.Index
		}
		out = append(out, p)
	}
	return out
}

// PrecedenceTables returns the dual-schema tables keyed by message kind so the
// order in which encodings win can be audited at runtime.
func PrecedenceTables() map[Kind][]Precedence {
	return map[Kind][]Precedence{
		KindFlightState: describe(flightStateTable),
		KindGuidanceBus: append(describe(guidanceFloatTable), describe(guidanceIntTable)...),
		KindAvoidance:   describe(avoidanceTable),
		KindESC:         describe(escTable),
	}
}
