package channel

import (
	"context"
	"sync"
)

// MemoryTransport is an in-process transport. Frames injected on the remote
// side are delivered as messages and sent frames are kept for inspection.
type MemoryTransport struct {
	// Refuse makes Run fail with this error instead of opening.
	Refuse error
	// SendErr is returned by Send when set.
	SendErr error

	mu      sync.Mutex
	sent    [][]byte
	inbound chan memoryOp
	open    bool
}

type memoryOp struct {
	data  []byte
	err   error
	close bool
	done  chan struct{}
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{inbound: make(chan memoryOp)}
}

func (t *MemoryTransport) Name() string { return "memory" }

func (t *MemoryTransport) Run(ctx context.Context, emit func(Event)) error {
	if t.Refuse != nil {
		emit(Event{Kind: EventError, Err: t.Refuse})
		emit(Event{Kind: EventClose})
		return t.Refuse
	}
	t.setOpen(true)
	defer t.setOpen(false)
	emit(Event{Kind: EventOpen})
	for {
		select {
		case <-ctx.Done():
			emit(Event{Kind: EventClose})
			return nil
		case op := <-t.inbound:
			switch {
			case op.close:
				if op.err != nil {
					emit(Event{Kind: EventError, Err: op.err})
				}
				emit(Event{Kind: EventClose})
				close(op.done)
				return op.err
			default:
				emit(Event{Kind: EventMessage, Data: op.data})
				close(op.done)
			}
		}
	}
}

func (t *MemoryTransport) setOpen(v bool) {
	t.mu.Lock()
	t.open = v
	t.mu.Unlock()
}

// Open reports whether Run is active.
func (t *MemoryTransport) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *MemoryTransport) Send(_ context.Context, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.SendErr != nil {
		return t.SendErr
	}
	if !t.open {
		return ErrClosed
	}
	t.sent = append(t.sent, append([]byte(nil), frame...))
	return nil
}

// Sent returns a copy of every frame written so far.
func (t *MemoryTransport) Sent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

// Inject delivers frame as a received message. It returns once the frame
// has been handed to every subscriber, or false if ctx ended first.
func (t *MemoryTransport) Inject(ctx context.Context, frame []byte) bool {
	return t.push(ctx, memoryOp{data: frame})
}

// CloseRemote ends the connection as if the backend hung up.
func (t *MemoryTransport) CloseRemote(ctx context.Context) bool {
	return t.push(ctx, memoryOp{close: true})
}

// Fail ends the connection with err.
func (t *MemoryTransport) Fail(ctx context.Context, err error) bool {
	return t.push(ctx, memoryOp{close: true, err: err})
}

func (t *MemoryTransport) push(ctx context.Context, op memoryOp) bool {
	op.done = make(chan struct{})
	select {
	case t.inbound <- op:
	case <-ctx.Done():
		return false
	}
	select {
	case <-op.done:
		return true
	case <-ctx.Done():
		return false
	}
}
