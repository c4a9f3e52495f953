package channel

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type datagram struct {
	dstPort uint16
	payload string
	at      time.Time
}

func buildCapture(t *testing.T, grams ...datagram) []byte {
	t.Helper()
	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))

	for _, g := range grams {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IPv4(192, 168, 1, 10),
			DstIP:    net.IPv4(192, 168, 1, 20),
		}
		udp := &layers.UDP{SrcPort: 40000, DstPort: layers.UDPPort(g.dstPort)}
		require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(g.payload)))
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{Timestamp: g.at, CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return out.Bytes()
}

func captureFrom(data []byte) func(string) (io.ReadCloser, error) {
	return func(string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func TestCaptureTransport_ReplaysFrames(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	data := buildCapture(t,
		datagram{dstPort: 14550, payload: "{\"type\":\"telemetry\"}\n{\"type\":\"log\"}", at: base},
		datagram{dstPort: 9999, payload: `{"type":"ignored"}`, at: base.Add(time.Millisecond)},
		datagram{dstPort: 14550, payload: `{"type":"status"}`, at: base.Add(2 * time.Millisecond)},
	)

	tr := NewCaptureTransport("flight.pcap", 14550)
	tr.Open = captureFrom(data)
	ch := New(tr, nil)
	defer ch.Close()
	sub := ch.Subscribe()
	require.NoError(t, ch.Connect(context.Background()))

	require.Equal(t, EventOpen, nextEvent(t, sub).Kind)
	var frames []string
	for _, want := range []time.Time{base, base, base.Add(2 * time.Millisecond)} {
		ev := nextEvent(t, sub)
		require.Equal(t, EventMessage, ev.Kind)
		assert.True(t, want.Equal(ev.Time), "frame time %v", ev.Time)
		frames = append(frames, string(ev.Data))
	}
	assert.Equal(t, []string{`{"type":"telemetry"}`, `{"type":"log"}`, `{"type":"status"}`}, frames)
	assert.Equal(t, EventClose, nextEvent(t, sub).Kind)
}

func TestCaptureTransport_AllPorts(t *testing.T) {
	data := buildCapture(t,
		datagram{dstPort: 1, payload: "a", at: time.Unix(1, 0)},
		datagram{dstPort: 2, payload: "b", at: time.Unix(2, 0)},
	)
	tr := NewCaptureTransport("x.pcap", 0)
	tr.Open = captureFrom(data)
	ch := New(tr, nil)
	defer ch.Close()
	sub := ch.Subscribe()
	require.NoError(t, ch.Connect(context.Background()))

	assert.Equal(t, []EventKind{EventOpen, EventMessage, EventMessage, EventClose}, kinds(t, sub, 4))
}

func TestCaptureTransport_Paced(t *testing.T) {
	base := time.Unix(100, 0)
	data := buildCapture(t,
		datagram{dstPort: 14550, payload: "a", at: base},
		datagram{dstPort: 14550, payload: "b", at: base.Add(100 * time.Millisecond)},
	)
	tr := NewCaptureTransport("x.pcap", 14550)
	tr.Open = captureFrom(data)
	tr.Speed = 2
	ch := New(tr, nil)
	defer ch.Close()
	sub := ch.Subscribe()

	start := time.Now()
	require.NoError(t, ch.Connect(context.Background()))
	kinds(t, sub, 4)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestCaptureTransport_BadFile(t *testing.T) {
	tr := NewCaptureTransport("junk.pcap", 0)
	tr.Open = captureFrom([]byte("not a capture file at all"))
	ch := New(tr, nil)
	sub := ch.Subscribe()
	require.NoError(t, ch.Connect(context.Background()))

	ev := nextEvent(t, sub)
	require.Equal(t, EventError, ev.Kind)
	assert.ErrorIs(t, ev.Err, ErrTransport)
	assert.Equal(t, EventClose, nextEvent(t, sub).Kind)
}

func TestCaptureTransport_ReadOnly(t *testing.T) {
	tr := NewCaptureTransport("x.pcap", 0)
	assert.ErrorIs(t, tr.Send(context.Background(), []byte("x")), ErrReadOnly)
	assert.Equal(t, "pcap", tr.Name())
}
