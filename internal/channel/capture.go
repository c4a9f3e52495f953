package channel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/groundstation/internal/monitoring"
)

// ErrReadOnly is returned when sending through a capture transport.
var ErrReadOnly = errors.New("capture transport is read-only")

// CaptureTransport replays telemetry frames from a pcap file of the backend's
// UDP traffic. Each UDP payload holds one or more newline-delimited frames.
type CaptureTransport struct {
	Path string
	// Port keeps only datagrams to or from this UDP port. Zero keeps all.
	Port int
	// Speed paces delivery by capture timestamps; 2 plays twice as fast.
	// Zero delivers as fast as subscribers accept.
	Speed float64
	// Open returns the capture stream. It defaults to opening Path.
	Open func(path string) (io.ReadCloser, error)
}

func NewCaptureTransport(path string, port int) *CaptureTransport {
	return &CaptureTransport{Path: path, Port: port}
}

func (t *CaptureTransport) Name() string { return "pcap" }

func (t *CaptureTransport) Run(ctx context.Context, emit func(Event)) error {
	fail := func(err error) error {
		err = fmt.Errorf("%w: capture %s: %v", ErrTransport, t.Path, err)
		emit(Event{Kind: EventError, Err: err})
		emit(Event{Kind: EventClose})
		return err
	}

	open := t.Open
	if open == nil {
		open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	f, err := open(t.Path)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return fail(err)
	}
	emit(Event{Kind: EventOpen})

	src := gopacket.NewPacketSource(r, r.LinkType())
	src.NoCopy = true
	var (
		count    int
		frames   int
		prevTime time.Time
		start    = time.Now()
	)
	for {
		packet, err := src.NextPacket()
		if err == io.EOF {
			monitoring.Logf("[channel] capture complete: %d packets, %d frames in %v", count, frames, time.Since(start))
			emit(Event{Kind: EventClose})
			return nil
		}
		if err != nil {
			return fail(err)
		}
		if ctx.Err() != nil {
			emit(Event{Kind: EventClose})
			return ctx.Err()
		}
		count++

		udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}
		if t.Port != 0 && int(udp.DstPort) != t.Port && int(udp.SrcPort) != t.Port {
			continue
		}

		ts := packet.Metadata().Timestamp
		if t.Speed > 0 && !prevTime.IsZero() && ts.After(prevTime) {
			wait := time.Duration(float64(ts.Sub(prevTime)) / t.Speed)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				emit(Event{Kind: EventClose})
				return ctx.Err()
			case <-timer.C:
			}
		}
		prevTime = ts

		for _, line := range bytes.Split(udp.Payload, []byte("\n")) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			frames++
			emit(Event{Kind: EventMessage, Data: append([]byte(nil), line...), Time: ts})
		}
	}
}

func (t *CaptureTransport) Send(context.Context, []byte) error { return ErrReadOnly }
