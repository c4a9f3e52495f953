package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/groundstation/internal/backend"
	"github.com/banshee-data/groundstation/internal/history"
	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/timeutil"
)

// ErrChannelUnavailable is returned when a command is sent while the channel
// is not connected.
var ErrChannelUnavailable = errors.New("channel not connected")

// Envelope is the command frame written to the channel.
type Envelope struct {
	Type      string `json:"type"`
	Command   string `json:"command"`
	Params    Params `json:"params"`
	Timestamp int64  `json:"timestamp"`
}

// RecordingEnvelope asks the backend to start or stop its own recording.
type RecordingEnvelope struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

// Sender is the channel side of dispatch.
type Sender interface {
	Connected() bool
	Send(ctx context.Context, frame []byte) error
}

// Submitter is the REST side of dispatch.
type Submitter interface {
	SubmitCommand(ctx context.Context, cmd backend.CommandRequest) (backend.Object, error)
}

// LogFunc appends to the user-visible log.
type LogFunc func(level history.Level, msg string)

// Dispatcher delivers commands. The two paths are independent: Send is
// fire-and-forget over the channel, Submit waits for the backend's reply.
// Responses carry no correlation id.
type Dispatcher struct {
	channel Sender
	rest    Submitter
	log     LogFunc
	clock   timeutil.Clock
	metrics *monitoring.Metrics
}

func NewDispatcher(ch Sender, rest Submitter, log LogFunc, clock timeutil.Clock, m *monitoring.Metrics) *Dispatcher {
	if log == nil {
		log = func(history.Level, string) {}
	}
	return &Dispatcher{channel: ch, rest: rest, log: log, clock: timeutil.OrReal(clock), metrics: m}
}

// Send writes a command envelope to the channel. It reports false with
// ErrChannelUnavailable when not connected; nothing is retried.
func (d *Dispatcher) Send(ctx context.Context, kind string, p Params) (bool, error) {
	if p == nil {
		p = Params{}
	}
	desc := Describe(kind, p)
	if d.channel == nil || !d.channel.Connected() {
		d.log(history.LevelWarning, "not connected, command not sent: "+desc)
		d.metrics.RecordCommand("channel", false)
		return false, ErrChannelUnavailable
	}
	frame, err := json.Marshal(Envelope{
		Type:      "command",
		Command:   kind,
		Params:    p,
		Timestamp: timeutil.UnixMillis(d.clock.Now()),
	})
	if err != nil {
		d.log(history.LevelError, fmt.Sprintf("command %s not sent: %v", kind, err))
		d.metrics.RecordCommand("channel", false)
		return false, fmt.Errorf("encode command %s: %w", kind, err)
	}
	if err := d.channel.Send(ctx, frame); err != nil {
		d.log(history.LevelError, fmt.Sprintf("command send failed: %s: %v", desc, err))
		d.metrics.RecordCommand("channel", false)
		return false, err
	}
	d.log(history.LevelInfo, "command sent: "+desc)
	d.metrics.RecordCommand("channel", true)
	return true, nil
}

// SendRecording writes a recording envelope when the channel is connected.
func (d *Dispatcher) SendRecording(ctx context.Context, action string) (bool, error) {
	if d.channel == nil || !d.channel.Connected() {
		return false, ErrChannelUnavailable
	}
	frame, err := json.Marshal(RecordingEnvelope{Type: "recording", Action: action})
	if err != nil {
		return false, err
	}
	if err := d.channel.Send(ctx, frame); err != nil {
		return false, err
	}
	return true, nil
}

// Submit posts a command to the backend and returns its parsed reply. On a
// network or server failure it logs the error and returns nil with the error.
func (d *Dispatcher) Submit(ctx context.Context, kind string, p Params) (backend.Object, error) {
	if p == nil {
		p = Params{}
	}
	desc := Describe(kind, p)
	if d.rest == nil {
		d.log(history.LevelError, "command failed: no backend configured: "+desc)
		d.metrics.RecordCommand("rest", false)
		return nil, fmt.Errorf("%w: no backend", backend.ErrRequestFailed)
	}
	resp, err := d.rest.SubmitCommand(ctx, backend.CommandRequest{Type: kind, Params: p})
	if err != nil {
		d.log(history.LevelError, fmt.Sprintf("command failed: %s: %v", desc, err))
		d.metrics.RecordCommand("rest", false)
		return nil, err
	}
	status := "unknown"
	if raw, ok := resp["status"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			status = s
		}
	}
	d.log(history.LevelInfo, fmt.Sprintf("command submitted: %s - %s", desc, status))
	d.metrics.RecordCommand("rest", status != "error")
	return resp, nil
}
