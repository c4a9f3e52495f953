package channel

import (
	"context"
	"errors"
)

// ErrDisabled is reported when connecting a channel with no backend configured.
var ErrDisabled = errors.New("backend connection disabled")

// DisabledTransport lets the station and its HTTP surface run with no
// backend. Run fails immediately so the station stays disconnected.
type DisabledTransport struct{}

func (DisabledTransport) Name() string { return "disabled" }

func (DisabledTransport) Run(_ context.Context, emit func(Event)) error {
	emit(Event{Kind: EventError, Err: ErrDisabled})
	emit(Event{Kind: EventClose})
	return ErrDisabled
}

func (DisabledTransport) Send(context.Context, []byte) error { return ErrDisabled }
