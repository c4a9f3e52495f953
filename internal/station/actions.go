package station

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/groundstation/internal/backend"
	"github.com/banshee-data/groundstation/internal/command"
	"github.com/banshee-data/groundstation/internal/history"
	"github.com/banshee-data/groundstation/internal/replay"
	"github.com/banshee-data/groundstation/internal/telemetry"
)

// SendCommand writes a command envelope to the channel. It reports false
// with command.ErrChannelUnavailable when disconnected.
func (s *Station) SendCommand(ctx context.Context, kind string, p command.Params) (bool, error) {
	return s.dispatcher.Send(ctx, kind, p)
}

// SubmitCommand posts a command to the backend and returns its reply.
func (s *Station) SubmitCommand(ctx context.Context, kind string, p command.Params) (backend.Object, error) {
	return s.dispatcher.Submit(ctx, kind, p)
}

// ControlReplay asks the backend to load, play, pause, stop, seek or change
// speed. A reply carrying a status is applied like a replay_response.
func (s *Station) ControlReplay(ctx context.Context, action string, params map[string]interface{}) (backend.Object, error) {
	if s.backend == nil {
		s.log(history.LevelError, "replay control failed: no backend configured")
		return nil, ErrNoBackend
	}
	resp, err := s.backend.ControlReplay(ctx, backend.ReplayControl{Action: action, Params: params})
	if err != nil {
		s.log(history.LevelError, fmt.Sprintf("replay %s failed: %v", action, err))
		return nil, err
	}
	fields := telemetry.Fields(resp)
	if !fields.Has("status") {
		return resp, nil
	}
	if !fields.Has("action") {
		fields = withKey(fields, "action", action)
	}
	msg, _ := telemetry.Parse(telemetry.Frame{Type: telemetry.KindReplayResponse, Header: fields})

	s.mu.Lock()
	defer s.mu.Unlock()
	if ack, ok := msg.(telemetry.ReplayResponse); ok {
		s.acknowledge(ack)
	}
	return resp, nil
}

func withKey(f telemetry.Fields, key, value string) telemetry.Fields {
	out := make(telemetry.Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	raw, _ := json.Marshal(value)
	out[key] = raw
	return out
}

// RefreshReplayStatus fetches the full replay status and merges it.
func (s *Station) RefreshReplayStatus(ctx context.Context) (replay.Status, error) {
	if s.backend == nil {
		return s.ReplayStatus(), ErrNoBackend
	}
	resp, err := s.backend.ReplayStatus(ctx)
	if err != nil {
		s.log(history.LevelError, fmt.Sprintf("replay status failed: %v", err))
		return s.ReplayStatus(), err
	}
	msg, _ := telemetry.Parse(telemetry.Frame{Type: telemetry.KindReplayStatus, Payload: resp.Status})

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := msg.(telemetry.ReplayStatusUpdate); ok {
		st := s.replay.UpdateStatus(u)
		s.metrics.RecordReplayProgress(st.Progress)
	}
	return s.replay.Status(), nil
}

// ReplayStatus returns the replay status without contacting the backend.
func (s *Station) ReplayStatus() replay.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replay.Status()
}

// LoadReplayCatalog fetches and partitions the replay variable catalog.
func (s *Station) LoadReplayCatalog(ctx context.Context) (replay.Analysis, error) {
	if s.backend == nil {
		return s.ReplayAnalysis(), ErrNoBackend
	}
	h, err := replay.FetchCatalog(ctx, s.backend)
	if err != nil {
		s.log(history.LevelError, fmt.Sprintf("replay catalog failed: %v", err))
		return s.ReplayAnalysis(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.replay.SetCatalog(h)
	s.logs.Info(fmt.Sprintf("replay catalog loaded: %d variables", len(a.Variables)))
	return a, nil
}

// LoadReplaySeries fetches sampled series for the selected variables.
func (s *Station) LoadReplaySeries(ctx context.Context, variables []string, maxPoints int) (replay.SeriesSet, error) {
	if _, err := replay.SeriesRequest(variables, maxPoints); err != nil {
		return replay.SeriesSet{}, err
	}
	if s.backend == nil {
		return replay.SeriesSet{}, ErrNoBackend
	}
	resp, err := replay.FetchSeries(ctx, s.backend, variables, maxPoints)
	if err != nil {
		s.log(history.LevelError, fmt.Sprintf("replay series failed: %v", err))
		return replay.SeriesSet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replay.SetSeries(variables, resp), nil
}
