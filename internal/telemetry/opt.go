package telemetry

// Opt is a value that may be absent from a payload.
type Opt[T any] struct {
	V  T
	OK bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] { return Opt[T]{V: v, OK: true} }

// Or returns the held value, or d when absent.
func (o Opt[T]) Or(d T) T {
	if o.OK {
		return o.V
	}
	return d
}

// Slot carries every encoding of one canonical field found in a payload:
// the structured key, its legacy flat alias, and a legacy array element.
type Slot[T any] struct {
	New    Opt[T]
	Legacy Opt[T]
	Array  Opt[T]
	// Seen is set when any encoding's key was present, usable or not.
	Seen bool
}

// Present reports whether any encoding supplied a value.
func (s Slot[T]) Present() bool { return s.New.OK || s.Legacy.OK || s.Array.OK }

// Resolve applies the encodings in table order (new, legacy, array) and
// returns the last one present. This is the order canonical state uses.
func (s Slot[T]) Resolve() Opt[T] {
	out := s.New
	if s.Legacy.OK {
		out = s.Legacy
	}
	if s.Array.OK {
		out = s.Array
	}
	return out
}

// Preferred returns the structured value when present, otherwise the legacy
// alias. Chart history samples use this order.
func (s Slot[T]) Preferred() Opt[T] {
	if s.New.OK {
		return s.New
	}
	return s.Legacy
}

// apply stores the resolved value into dst when one is present.
func (s Slot[T]) apply(dst *T) {
	if v := s.Resolve(); v.OK {
		*dst = v.V
	}
}

func set[T any](dst *T, o Opt[T]) {
	if o.OK {
		*dst = o.V
	}
}
