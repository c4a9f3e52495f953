package telemetry

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame is wrapped by DecodeError when a frame is not a JSON object.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownType classifies frames whose type is outside the catalog. It
	// is informational; such frames are ignored.
	ErrUnknownType = errors.New("unknown message type")
)

// DecodeError reports a frame that could not be parsed. The frame is dropped.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
