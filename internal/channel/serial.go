package channel

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sync"
)

// maxSerialFrame bounds one newline-delimited JSON frame.
const maxSerialFrame = 1 << 20

// SerialTransport exchanges newline-delimited JSON frames over a serial link.
type SerialTransport struct {
	Path    string
	Options PortOptions
	Open    SerialPortOpener

	mu   sync.Mutex
	port SerialPorter
}

func NewSerialTransport(path string, opts PortOptions) *SerialTransport {
	return &SerialTransport{Path: path, Options: opts, Open: OpenSerialPort}
}

func (t *SerialTransport) Name() string { return "serial" }

func (t *SerialTransport) Run(ctx context.Context, emit func(Event)) error {
	open := t.Open
	if open == nil {
		open = OpenSerialPort
	}
	port, err := open(t.Path, t.Options)
	if err != nil {
		err = fmt.Errorf("%w: open %s: %v", ErrTransport, t.Path, err)
		emit(Event{Kind: EventError, Err: err})
		emit(Event{Kind: EventClose})
		return err
	}
	t.mu.Lock()
	t.port = port
	t.mu.Unlock()
	emit(Event{Kind: EventOpen})

	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	// The blocking scan runs apart from the loop below so that cancellation
	// is observed promptly; closing the port unblocks it.
	go func() {
		defer close(lines)
		scan := bufio.NewScanner(port)
		scan.Buffer(make([]byte, 0, 4096), maxSerialFrame)
		for scan.Scan() {
			line := bytes.TrimSpace(scan.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- append([]byte(nil), line...):
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErr <- err
		}
	}()

	closePort := func() {
		t.mu.Lock()
		t.port = nil
		t.mu.Unlock()
		port.Close()
	}

	for {
		select {
		case <-ctx.Done():
			closePort()
			emit(Event{Kind: EventClose})
			return ctx.Err()

		case line, ok := <-lines:
			if ok {
				emit(Event{Kind: EventMessage, Data: line})
				continue
			}
			closePort()
			select {
			case err := <-scanErr:
				if ctx.Err() == nil {
					err = fmt.Errorf("%w: read %s: %v", ErrTransport, t.Path, err)
					emit(Event{Kind: EventError, Err: err})
					emit(Event{Kind: EventClose})
					return err
				}
			default:
			}
			emit(Event{Kind: EventClose})
			return nil
		}
	}
}

// Send writes frame followed by a newline.
func (t *SerialTransport) Send(_ context.Context, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return ErrClosed
	}
	if !bytes.HasSuffix(frame, []byte("\n")) {
		frame = append(append([]byte(nil), frame...), '\n')
	}
	n, err := t.port.Write(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if n != len(frame) {
		return ErrWriteFailed
	}
	return nil
}
