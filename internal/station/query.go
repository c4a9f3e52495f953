package station

import (
	"github.com/banshee-data/groundstation/internal/config"
	"github.com/banshee-data/groundstation/internal/history"
	"github.com/banshee-data/groundstation/internal/replay"
	"github.com/banshee-data/groundstation/internal/session"
	"github.com/banshee-data/groundstation/internal/telemetry"
)

// SystemView adds the derived system status fields.
type SystemView struct {
	Armed           bool   `json:"armed"`
	LowBattery      bool   `json:"lowBattery"`
	LinkQualityText string `json:"linkQualityText"`
}

// CommandResult is the most recent command_response from the backend.
type CommandResult struct {
	Command string `json:"command"`
	Status  string `json:"status"`
}

// Snapshot is a consistent copy of everything the presentation layer reads.
type Snapshot struct {
	Connected    bool              `json:"connected"`
	Connecting   bool              `json:"connecting"`
	Transport    string            `json:"transport"`
	Mode         replay.Mode       `json:"systemMode"`
	State        telemetry.State   `json:"state"`
	System       SystemView        `json:"system"`
	Replay       replay.Status     `json:"replayStatus"`
	Recording    session.Info      `json:"recording"`
	Connection   config.Connection `json:"config"`
	LastResponse *CommandResult    `json:"lastCommandResponse,omitempty"`
	Stats        Stats             `json:"stats"`
}

func copyObstacles(o []telemetry.Obstacle) []telemetry.Obstacle {
	return append([]telemetry.Obstacle{}, o...)
}

func copyPath(p []telemetry.Point3) []telemetry.Point3 {
	if p == nil {
		return nil
	}
	return append([]telemetry.Point3(nil), p...)
}

// Snapshot returns the current state. Slices are copied.
func (s *Station) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Obstacles.Planning = copyObstacles(st.Obstacles.Planning)
	st.Obstacles.Lidar = copyObstacles(st.Obstacles.Lidar)
	st.Planning.GlobalPath = copyPath(st.Planning.GlobalPath)
	st.Planning.LocalTraj = copyPath(st.Planning.LocalTraj)

	snap := Snapshot{
		Connected:  s.connected,
		Connecting: s.connecting,
		Transport:  s.ch.Transport().Name(),
		Mode:       s.replay.Mode(),
		State:      st,
		System: SystemView{
			Armed:           st.System.Armed(),
			LowBattery:      st.System.LowBattery(),
			LinkQualityText: st.System.LinkQualityText(),
		},
		Replay:     s.replay.Status(),
		Recording:  s.session.Info(),
		Connection: s.conn,
		Stats:      s.stats,
	}
	if s.lastResponse != nil {
		snap.LastResponse = &CommandResult{Command: s.lastResponse.Command, Status: s.lastResponse.Status}
	}
	return snap
}

// State returns the canonical state.
func (s *Station) State() telemetry.State {
	return s.Snapshot().State
}

// Series returns one chart series.
func (s *Station) Series(name string) ([]history.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Series(name)
}

// History returns every chart series.
func (s *Station) History() map[string][]history.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Snapshot()
}

// HistorySummary returns descriptive statistics per chart series.
func (s *Station) HistorySummary() map[string]history.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Summaries()
}

// Trajectory returns the retained points and the path length through them.
func (s *Station) Trajectory() ([]history.Point, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trajectory.Points(), s.trajectory.Length()
}

// Logs returns the log book, filtered by level when level is not empty.
func (s *Station) Logs(level history.Level) []history.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level == "" {
		return s.logs.Entries()
	}
	return s.logs.Filter(level)
}

// Connection returns the connection configuration.
func (s *Station) Connection() config.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// ReplayAnalysis returns the replay analysis sub-state.
func (s *Station) ReplayAnalysis() replay.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replay.Analysis()
}
