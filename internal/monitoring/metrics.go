package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the station collectors. A nil *Metrics is valid and records
// nothing, so components can be built without metrics in tests.
type Metrics struct {
	MessagesReceived *prometheus.CounterVec
	DecodeErrors     prometheus.Counter
	UnknownTypes     *prometheus.CounterVec
	DroppedEvents    *prometheus.CounterVec
	RecordsWritten   *prometheus.CounterVec
	CommandsSent     *prometheus.CounterVec
	BackendRequests  *prometheus.CounterVec
	Connected        prometheus.Gauge
	SystemMode       prometheus.Gauge
	ReplayProgress   prometheus.Gauge
	TrajectoryPoints prometheus.Gauge
}

// NewMetrics creates the collectors without registering them.
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundstation",
			Subsystem: "telemetry",
			Name:      "messages_received_total",
			Help:      "Channel messages decoded, by message type",
		}, []string{"type"}),

		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundstation",
			Subsystem: "telemetry",
			Name:      "decode_errors_total",
			Help:      "Frames dropped because they were not a JSON object",
		}),

		UnknownTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundstation",
			Subsystem: "telemetry",
			Name:      "unknown_types_total",
			Help:      "Frames ignored because their type is outside the catalog",
		}, []string{"type"}),

		DroppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundstation",
			Subsystem: "channel",
			Name:      "dropped_events_total",
			Help:      "Channel events dropped because a subscriber was not keeping up",
		}, []string{"transport"}),

		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundstation",
			Subsystem: "session",
			Name:      "records_total",
			Help:      "Record lines produced while recording, by category",
		}, []string{"category"}),

		CommandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundstation",
			Subsystem: "command",
			Name:      "sent_total",
			Help:      "Commands dispatched, by path (channel/rest) and outcome",
		}, []string{"path", "outcome"}),

		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundstation",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "One-shot backend requests, by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundstation",
			Subsystem: "channel",
			Name:      "connected",
			Help:      "Channel connection status (0=disconnected, 1=connected)",
		}),

		SystemMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundstation",
			Subsystem: "replay",
			Name:      "system_mode",
			Help:      "System mode (0=realtime, 1=replay)",
		}),

		ReplayProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundstation",
			Subsystem: "replay",
			Name:      "progress_percent",
			Help:      "Replay progress as last reported",
		}),

		TrajectoryPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundstation",
			Subsystem: "history",
			Name:      "trajectory_points",
			Help:      "Retained trajectory points",
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.MessagesReceived, m.DecodeErrors, m.UnknownTypes, m.DroppedEvents,
		m.RecordsWritten, m.CommandsSent, m.BackendRequests,
		m.Connected, m.SystemMode, m.ReplayProgress, m.TrajectoryPoints,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (m *Metrics) RecordMessage(msgType string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(msgType).Inc()
}

func (m *Metrics) RecordDecodeError() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}

func (m *Metrics) RecordUnknownType(msgType string) {
	if m == nil {
		return
	}
	m.UnknownTypes.WithLabelValues(msgType).Inc()
}

func (m *Metrics) RecordDroppedEvent(transport string) {
	if m == nil {
		return
	}
	m.DroppedEvents.WithLabelValues(transport).Inc()
}

func (m *Metrics) RecordRecord(category string) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(category).Inc()
}

// RecordCommand counts a dispatched command. path is "channel" or "rest".
func (m *Metrics) RecordCommand(path string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.CommandsSent.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) RecordBackendRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) RecordConnected(connected bool) {
	if m == nil {
		return
	}
	m.Connected.Set(boolValue(connected))
}

func (m *Metrics) RecordSystemMode(replay bool) {
	if m == nil {
		return
	}
	m.SystemMode.Set(boolValue(replay))
}

func (m *Metrics) RecordReplayProgress(p float64) {
	if m == nil {
		return
	}
	m.ReplayProgress.Set(p)
}

func (m *Metrics) RecordTrajectoryPoints(n int) {
	if m == nil {
		return
	}
	m.TrajectoryPoints.Set(float64(n))
}
