package session

import (
	"sync"
	"sync/atomic"

	"github.com/banshee-data/groundstation/internal/monitoring"
)

type opKind int

const (
	opOpen opKind = iota
	opWrite
	opClose
)

type op struct {
	kind opKind
	arg  string
	done chan error
}

// AsyncSink moves disk writes off the event loop. Lines are queued to a single
// worker so they reach the wrapped sink in order. When the queue is full a
// line is dropped and counted rather than blocking the caller. Open and Close
// wait for the worker.
type AsyncSink struct {
	next    Sink
	queue   chan op
	dropped atomic.Uint64
	wg      sync.WaitGroup
	once    sync.Once
}

// NewAsyncSink starts the worker. Call Shutdown to stop it.
func NewAsyncSink(next Sink, queueSize int) *AsyncSink {
	if queueSize < 1 {
		queueSize = 1
	}
	a := &AsyncSink{next: next, queue: make(chan op, queueSize)}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *AsyncSink) run() {
	defer a.wg.Done()
	for o := range a.queue {
		var err error
		switch o.kind {
		case opOpen:
			err = a.next.Open(o.arg)
		case opWrite:
			err = a.next.WriteLine(o.arg)
			if err != nil {
				monitoring.Logf("[session] async write: %v", err)
			}
		case opClose:
			err = a.next.Close()
		}
		if o.done != nil {
			o.done <- err
		}
	}
}

func (a *AsyncSink) call(kind opKind, arg string) error {
	done := make(chan error, 1)
	a.queue <- op{kind: kind, arg: arg, done: done}
	return <-done
}

func (a *AsyncSink) Open(name string) error { return a.call(opOpen, name) }

func (a *AsyncSink) WriteLine(line string) error {
	select {
	case a.queue <- op{kind: opWrite, arg: line}:
	default:
		a.dropped.Add(1)
	}
	return nil
}

// Close flushes queued lines and closes the wrapped sink.
func (a *AsyncSink) Close() error { return a.call(opClose, "") }

// Dropped returns the number of lines discarded on a full queue.
func (a *AsyncSink) Dropped() uint64 { return a.dropped.Load() }

// Shutdown closes the wrapped sink, stops the worker and waits for it.
func (a *AsyncSink) Shutdown() error {
	var err error
	a.once.Do(func() {
		err = a.call(opClose, "")
		close(a.queue)
		a.wg.Wait()
	})
	return err
}
