package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport connects to the backend's websocket endpoint. Each text
// message is one frame.
type WebSocketTransport struct {
	URL          string
	Dialer       *websocket.Dialer
	WriteTimeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocketTransport(url string) *WebSocketTransport {
	return &WebSocketTransport{URL: url, Dialer: websocket.DefaultDialer, WriteTimeout: 5 * time.Second}
}

func (t *WebSocketTransport) Name() string { return "websocket" }

func (t *WebSocketTransport) Run(ctx context.Context, emit func(Event)) error {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, t.URL, nil)
	if err != nil {
		err = fmt.Errorf("%w: dial %s: %v", ErrTransport, t.URL, err)
		emit(Event{Kind: EventError, Err: err})
		emit(Event{Kind: EventClose})
		return err
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.conn = nil
		t.mu.Unlock()
		conn.Close()
	}()
	emit(Event{Kind: EventOpen})

	// Unblock ReadMessage when the context ends.
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				emit(Event{Kind: EventClose})
				return nil
			}
			err = fmt.Errorf("%w: read: %v", ErrTransport, err)
			emit(Event{Kind: EventError, Err: err})
			emit(Event{Kind: EventClose})
			return err
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		emit(Event{Kind: EventMessage, Data: data})
	}
}

// Send writes frame as one text message.
func (t *WebSocketTransport) Send(ctx context.Context, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrClosed
	}
	deadline := time.Now().Add(t.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if t.WriteTimeout > 0 {
		t.conn.SetWriteDeadline(deadline)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
