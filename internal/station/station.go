// Package station owns the ground-control state: it consumes channel events,
// normalizes telemetry into the canonical state and feeds the chart history,
// trajectory, log book, recording session and replay coordinator. All
// mutation happens under one lock, in channel arrival order.
package station

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/groundstation/internal/backend"
	"github.com/banshee-data/groundstation/internal/channel"
	"github.com/banshee-data/groundstation/internal/command"
	"github.com/banshee-data/groundstation/internal/config"
	"github.com/banshee-data/groundstation/internal/history"
	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/replay"
	"github.com/banshee-data/groundstation/internal/session"
	"github.com/banshee-data/groundstation/internal/telemetry"
	"github.com/banshee-data/groundstation/internal/timeutil"
)

// ErrNoBackend is returned by operations that need the REST backend when
// none is configured.
var ErrNoBackend = fmt.Errorf("%w: no backend configured", backend.ErrRequestFailed)

// Backend is the REST surface the station calls.
type Backend interface {
	replay.Source
	command.Submitter
	ReplayStatus(ctx context.Context) (backend.ReplayStatus, error)
	ControlReplay(ctx context.Context, ctl backend.ReplayControl) (backend.Object, error)
}

// Options configures a Station. Zero values are usable.
type Options struct {
	Clock   timeutil.Clock
	Sink    session.Sink
	Backend Backend
	Metrics *monitoring.Metrics
	// Connection is the initial connection configuration. It defaults to
	// config.DefaultConnection.
	Connection *config.Connection
	// Trace logs the type of every decoded frame.
	Trace bool
}

// Stats counts frames by outcome since the station was created.
type Stats struct {
	Events       uint64 `json:"events"`
	Messages     uint64 `json:"messages"`
	DecodeErrors uint64 `json:"decodeErrors"`
	UnknownTypes uint64 `json:"unknownTypes"`
}

// Station is the owned context object. Create it with New and release it
// with Close.
type Station struct {
	ch      *channel.Channel
	backend Backend
	clock   timeutil.Clock
	metrics *monitoring.Metrics
	trace   bool

	dispatcher *command.Dispatcher
	sub        *channel.Subscription
	loopDone   chan struct{}
	closeOnce  sync.Once

	mu           sync.Mutex
	state        telemetry.State
	conn         config.Connection
	connected    bool
	connecting   bool
	stats        Stats
	lastResponse *telemetry.CommandResponse
	history      *history.Recorder
	trajectory   *history.Trajectory
	logs         *history.LogBook
	session      *session.Recorder
	replay       *replay.Coordinator
}

// New returns a station bound to ch. It subscribes to ch immediately; call
// Connect to start the transport.
func New(ch *channel.Channel, opts Options) *Station {
	clock := timeutil.OrReal(opts.Clock)
	conn := config.DefaultConnection()
	if opts.Connection != nil {
		conn = *opts.Connection
	}
	s := &Station{
		ch:         ch,
		backend:    opts.Backend,
		clock:      clock,
		metrics:    opts.Metrics,
		trace:      opts.Trace,
		loopDone:   make(chan struct{}),
		state:      telemetry.NewState(),
		conn:       conn,
		history:    history.NewRecorder(clock),
		trajectory: history.NewTrajectory(clock),
		logs:       history.NewLogBook(clock),
		session:    session.NewRecorder(clock, opts.Sink),
		replay:     replay.NewCoordinator(),
	}
	var rest command.Submitter
	if opts.Backend != nil {
		rest = opts.Backend
	}
	s.dispatcher = command.NewDispatcher(ch, rest, s.log, clock, opts.Metrics)
	s.sub = ch.Subscribe()
	go s.run()
	return s
}

func (s *Station) run() {
	defer close(s.loopDone)
	for {
		select {
		case ev := <-s.sub.Events():
			s.handle(ev)
		case <-s.sub.Done():
			return
		}
	}
}

// log appends to the log book. It takes the lock and must not be called
// while holding it.
func (s *Station) log(level history.Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs.Add(level, msg)
}

func (s *Station) handle(ev channel.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Events++
	switch ev.Kind {
	case channel.EventOpen:
		s.connected = true
		s.connecting = false
		s.logs.Info("connection established")
	case channel.EventClose:
		s.connected = false
		s.connecting = false
		s.logs.Warning("connection closed")
	case channel.EventError:
		s.connecting = false
		s.logs.Error(fmt.Sprintf("connection error: %v", ev.Err))
	case channel.EventMessage:
		s.handleFrame(ev.Data)
	}
}

// Connect starts the channel. Connecting while connected or connecting is
// a no-op that logs a warning. There is no automatic reconnect.
func (s *Station) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected || s.connecting {
		s.logs.Warning("already connected or connecting")
		s.mu.Unlock()
		return nil
	}
	s.connecting = true
	s.mu.Unlock()

	// The transport outlives the request that started it.
	if err := s.ch.Connect(context.WithoutCancel(ctx)); err != nil {
		s.mu.Lock()
		s.connecting = false
		s.logs.Error(fmt.Sprintf("connect failed: %v", err))
		s.mu.Unlock()
		return err
	}
	return nil
}

// Disconnect stops the channel and waits for its close event to be handled.
func (s *Station) Disconnect() {
	s.ch.Disconnect()
}

// Close stops the channel and the event loop.
func (s *Station) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.ch.Disconnect()
		s.sub.Unsubscribe()
		<-s.loopDone
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session.Active() {
			if _, stopErr := s.session.Stop(); stopErr != nil {
				err = stopErr
			}
		}
	})
	return err
}

// Connected reports the connectivity flag.
func (s *Station) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// StartRecording begins a recording session and asks the backend to record
// too when the channel is connected. Starting while active is a no-op.
func (s *Station) StartRecording(ctx context.Context) (session.Info, error) {
	return s.recording(ctx, "start")
}

// StopRecording ends the recording session. Stopping while inactive is a
// no-op.
func (s *Station) StopRecording(ctx context.Context) (session.Info, error) {
	return s.recording(ctx, "stop")
}

func (s *Station) recording(ctx context.Context, action string) (session.Info, error) {
	s.mu.Lock()
	var (
		info session.Info
		err  error
	)
	if action == "start" {
		info, err = s.session.Start()
	} else {
		info, err = s.session.Stop()
	}
	switch {
	case errors.Is(err, session.ErrAlreadyActive):
		s.logs.Warning("recording already in progress")
		s.mu.Unlock()
		return info, nil
	case errors.Is(err, session.ErrNotActive):
		s.logs.Warning("no recording in progress")
		s.mu.Unlock()
		return info, nil
	case err != nil && action == "start":
		s.logs.Error(fmt.Sprintf("recording start: %v", err))
		s.mu.Unlock()
		return info, err
	case err != nil:
		s.logs.Error(fmt.Sprintf("recording %s: %v", action, err))
	case action == "start":
		s.logs.Info("recording started: " + info.FilePath)
	default:
		s.logs.Info(fmt.Sprintf("recording stopped: %d records in %ds", info.RecordCount, info.Duration))
	}
	s.mu.Unlock()

	if _, sendErr := s.dispatcher.SendRecording(ctx, action); sendErr != nil && !errors.Is(sendErr, command.ErrChannelUnavailable) {
		s.log(history.LevelWarning, fmt.Sprintf("recording %s not sent to backend: %v", action, sendErr))
	}
	return info, err
}

// Recording returns the session snapshot.
func (s *Station) Recording() session.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Info()
}

// ClearLogs empties the log book and records that it did.
func (s *Station) ClearLogs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs.Clear()
	s.logs.Info("logs cleared")
}

// ClearTrajectory empties the trajectory.
func (s *Station) ClearTrajectory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trajectory.Clear()
	s.metrics.RecordTrajectoryPoints(0)
}

// AddLog appends a user-visible log entry.
func (s *Station) AddLog(level history.Level, msg string) history.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs.Add(level, msg)
}
