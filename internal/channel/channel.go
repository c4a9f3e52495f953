// Package channel is the bidirectional message transport between the station
// and the ground-control backend. A Channel runs one Transport at a time and
// fans its lifecycle and message events out to subscribers.
package channel

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/groundstation/internal/monitoring"
)

var (
	// ErrClosed is returned when sending on a channel that is not connected.
	ErrClosed = errors.New("channel closed")
	// ErrAlreadyRunning is returned by Connect while a transport is running.
	ErrAlreadyRunning = errors.New("channel already connecting or connected")
	// ErrWriteFailed is returned when a transport accepted fewer bytes than sent.
	ErrWriteFailed = errors.New("failed to write frame")
	// ErrTransport wraps errors reported by a transport.
	ErrTransport = errors.New("transport error")
)

// EventKind identifies a channel event.
type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventClose
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one lifecycle notification or received frame.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
	Time time.Time
}

// Transport connects to the backend. Run emits EventOpen once connected,
// EventMessage per received frame, and ends with EventClose, preceded by
// EventError when the connection failed. Run returns when ctx is cancelled or
// the connection ends. Send must be safe to call concurrently with Run.
type Transport interface {
	Name() string
	Run(ctx context.Context, emit func(Event)) error
	Send(ctx context.Context, frame []byte) error
}

// Channel multiplexes one transport to many subscribers.
type Channel struct {
	transport Transport
	metrics   *monitoring.Metrics

	subscriberMu sync.Mutex
	subscribers  map[string]*Subscription

	runMu     sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	connected atomic.Bool
}

// New returns a disconnected channel over t.
func New(t Transport, m *monitoring.Metrics) *Channel {
	return &Channel{
		transport:   t,
		metrics:     m,
		subscribers: make(map[string]*Subscription),
	}
}

// Transport returns the underlying transport.
func (c *Channel) Transport() Transport { return c.transport }

// randomID generates a random subscription ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscription receives channel events until Unsubscribe is called.
type Subscription struct {
	ID      string
	events  chan Event
	done    chan struct{}
	lossy   bool
	once    sync.Once
	owner   *Channel
	dropped atomic.Uint64
}

// Events delivers events in arrival order.
func (s *Subscription) Events() <-chan Event { return s.events }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Dropped returns how many events a lossy subscription skipped.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.owner.subscriberMu.Lock()
		delete(s.owner.subscribers, s.ID)
		s.owner.subscriberMu.Unlock()
		close(s.done)
	})
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*Subscription)

// Lossy makes delivery skip events while the subscriber's buffer is full
// instead of waiting. Diagnostic tails use this.
func Lossy() SubscribeOption { return func(s *Subscription) { s.lossy = true } }

// Buffer sets the event buffer size.
func Buffer(n int) SubscribeOption {
	return func(s *Subscription) {
		if n < 0 {
			n = 0
		}
		s.events = make(chan Event, n)
	}
}

// Subscribe registers a new subscriber. By default delivery waits for the
// subscriber so no message is lost and order is preserved.
func (c *Channel) Subscribe(opts ...SubscribeOption) *Subscription {
	s := &Subscription{
		ID:     randomID(),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
		owner:  c,
	}
	for _, o := range opts {
		o(s)
	}
	c.subscriberMu.Lock()
	defer c.subscriberMu.Unlock()
	c.subscribers[s.ID] = s
	return s
}

func (c *Channel) publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	switch ev.Kind {
	case EventOpen:
		c.connected.Store(true)
	case EventClose:
		c.connected.Store(false)
	}
	c.metrics.RecordConnected(c.connected.Load())

	c.subscriberMu.Lock()
	subs := make([]*Subscription, 0, len(c.subscribers))
	for _, s := range c.subscribers {
		subs = append(subs, s)
	}
	c.subscriberMu.Unlock()

	for _, s := range subs {
		if s.lossy {
			select {
			case s.events <- ev:
			case <-s.done:
			default:
				s.dropped.Add(1)
				c.metrics.RecordDroppedEvent(c.transport.Name())
			}
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
		}
	}
}

// Connect starts the transport in the background. Events arrive through
// subscriptions. There is no automatic reconnect.
func (c *Channel) Connect(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.done != nil {
		select {
		case <-c.done:
		default:
			return ErrAlreadyRunning
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	go func() {
		defer close(done)
		defer cancel()
		if err := c.transport.Run(runCtx, c.publish); err != nil && !errors.Is(err, context.Canceled) {
			monitoring.Logf("[channel] %s transport ended: %v", c.transport.Name(), err)
		}
		c.connected.Store(false)
		c.metrics.RecordConnected(false)
	}()
	return nil
}

// Disconnect stops the transport and waits for it to finish.
func (c *Channel) Disconnect() {
	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a transport goroutine is active.
func (c *Channel) Running() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Connected reports whether the transport has opened and not yet closed.
func (c *Channel) Connected() bool { return c.connected.Load() }

// Send writes a frame through the transport.
func (c *Channel) Send(ctx context.Context, frame []byte) error {
	if !c.Connected() {
		return ErrClosed
	}
	return c.transport.Send(ctx, frame)
}

// Close disconnects and ends every subscription.
func (c *Channel) Close() error {
	c.Disconnect()
	c.subscriberMu.Lock()
	subs := make([]*Subscription, 0, len(c.subscribers))
	for _, s := range c.subscribers {
		subs = append(subs, s)
	}
	c.subscriberMu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
	return nil
}
