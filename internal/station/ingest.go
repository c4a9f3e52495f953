package station

import (
	"errors"
	"fmt"

	"github.com/banshee-data/groundstation/internal/history"
	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/replay"
	"github.com/banshee-data/groundstation/internal/session"
	"github.com/banshee-data/groundstation/internal/telemetry"
)

// handleFrame runs one frame through decode, parse and apply. The caller
// holds s.mu. Failures are contained here.
func (s *Station) handleFrame(raw []byte) {
	fr, err := telemetry.Decode(raw)
	if err != nil {
		s.stats.DecodeErrors++
		s.metrics.RecordDecodeError()
		monitoring.Logf("[station] dropped frame: %v", err)
		return
	}
	if s.trace {
		monitoring.Logf("[station] frame %s (wrapped=%t, %d bytes)", fr.Type, fr.Wrapped, len(raw))
	}

	msg, err := telemetry.Parse(fr)
	if errors.Is(err, telemetry.ErrUnknownType) {
		s.stats.UnknownTypes++
		s.metrics.RecordUnknownType(string(fr.Type))
		s.logs.Debug(fmt.Sprintf("unknown message type: %s", fr.Type))
		return
	}
	s.stats.Messages++
	s.metrics.RecordMessage(string(fr.Type))

	s.apply(msg)
	if fr.Wrapped {
		s.logs.Info(receivedText(msg))
	}
}

// receivedText describes a wrapped frame for the log book.
func receivedText(m telemetry.Message) string {
	if p, ok := m.(telemetry.PWMUpdate); ok {
		return fmt.Sprintf("received %s [%d channels]", m.Kind().Label(), len(p.Channels))
	}
	return "received " + m.Kind().Label()
}

// apply merges m into the canonical state and fans it out to the history,
// trajectory, session and replay owners.
func (s *Station) apply(m telemetry.Message) {
	next, _ := telemetry.Apply(s.state, m)
	s.state = next

	switch u := m.(type) {
	case telemetry.FlightStateUpdate:
		s.history.RecordFlightState(u, next.Flight)
		s.record(session.FlightState, session.FlightStateFields(u, next.Attitude.Yaw))

	case telemetry.ControlLoopUpdate:
		s.history.RecordControlLoop(u)
		s.record(session.ControlLoop, session.ControlLoopFields(u))

	case telemetry.PWMUpdate:
		s.history.RecordPWM(u)
		s.record(session.PWM, "")

	case telemetry.AvoidanceUpdate:
		s.record(session.Avoidance, session.AvoidanceFields(u))

	case telemetry.PlanningUpdate:
		if p, ok := u.Position3(); ok && s.trajectory.Add(p.X, p.Y, p.Z) {
			s.metrics.RecordTrajectoryPoints(s.trajectory.Len())
		}

	case telemetry.LogMessage:
		s.logs.Add(history.ParseLevel(u.Level), u.Message)

	case telemetry.CommandResponse:
		resp := u
		s.lastResponse = &resp
		s.logs.Info(fmt.Sprintf("command response: %s - %s", u.Command, u.Status))

	case telemetry.ConfigUpdate:
		s.conn = s.conn.Merge(u.Fields)

	case telemetry.ModeChange:
		prev, err := s.replay.SetMode(replay.Mode(u.Mode))
		if err != nil {
			s.logs.Warning(err.Error())
			return
		}
		s.metrics.RecordSystemMode(s.replay.Mode() == replay.Replay)
		s.logs.Info(fmt.Sprintf("system mode changed: %s -> %s", prev, u.Mode))

	case telemetry.ReplayStatusUpdate:
		st := s.replay.UpdateStatus(u)
		s.metrics.RecordReplayProgress(st.Progress)

	case telemetry.ReplayResponse:
		s.acknowledge(u)
	}
}

func (s *Station) acknowledge(r telemetry.ReplayResponse) {
	st, err := s.replay.Acknowledge(r)
	if err != nil {
		s.logs.Warning(err.Error())
		return
	}
	s.metrics.RecordReplayProgress(st.Progress)
	s.logs.Info(fmt.Sprintf("replay %s acknowledged", r.Action))
}

func (s *Station) record(category session.Category, fields string) {
	if _, ok := s.session.Record(category, fields); ok {
		s.metrics.RecordRecord(string(category))
	}
}
