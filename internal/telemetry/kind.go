package telemetry

// Kind is the logical message type carried in a frame's "type" field.
type Kind string

const (
	KindFlightState    Kind = "fcs_states"
	KindPWM            Kind = "fcs_pwms"
	KindControlLoop    Kind = "fcs_datactrl"
	KindGuidanceBus    Kind = "fcs_gncbus"
	KindAvoidance      Kind = "avoiflag"
	KindRemoteControl  Kind = "fcs_datafutaba"
	KindESC            Kind = "fcs_esc"
	KindGroundStation  Kind = "fcs_datagcs"
	KindParameter      Kind = "fcs_param"
	KindLidarStatus    Kind = "lidar_status"
	KindLidarObstacles Kind = "lidar_obstacles"
	KindPlanning       Kind = "planning_telemetry"
	KindObstacles      Kind = "obstacles"
	KindSystemStatus   Kind = "system_status"
	KindLog            Kind = "log"
	KindCommandResp    Kind = "command_response"
	KindConfigUpdate   Kind = "config_update"
	KindModeChange     Kind = "system_mode_change"
	KindReplayStatus   Kind = "replay_status"
	KindReplayResponse Kind = "replay_response"

	// KindWrapper marks a transport envelope whose payload is itself a
	// {type, data} message.
	KindWrapper Kind = "udp_data"
	// KindUnknown is the effective type of a wrapper with no inner type.
	KindUnknown Kind = "unknown"
)

// Catalog lists every kind the normalizer understands, in documentation order.
var Catalog = []Kind{
	KindFlightState, KindPWM, KindControlLoop, KindGuidanceBus, KindAvoidance,
	KindRemoteControl, KindESC, KindGroundStation, KindParameter,
	KindLidarStatus, KindLidarObstacles, KindPlanning, KindObstacles,
	KindSystemStatus, KindLog, KindCommandResp, KindConfigUpdate,
	KindModeChange, KindReplayStatus, KindReplayResponse,
}

var known = func() map[Kind]bool {
	m := make(map[Kind]bool, len(Catalog))
	for _, k := range Catalog {
		m[k] = true
	}
	return m
}()

// Known reports whether k is in the catalog.
func (k Kind) Known() bool { return known[k] }

// Label is a short human-readable description used in log entries.
func (k Kind) Label() string {
	switch k {
	case KindFlightState:
		return "flight state"
	case KindPWM:
		return "PWM data"
	case KindControlLoop:
		return "control loop data"
	case KindGuidanceBus:
		return "GN&C bus data"
	case KindAvoidance:
		return "avoidance flags"
	case KindRemoteControl:
		return "remote control data"
	case KindESC:
		return "ESC data"
	case KindGroundStation:
		return "GCS data"
	case KindParameter:
		return "parameter data"
	case KindLidarStatus:
		return "lidar status"
	case KindLidarObstacles:
		return "lidar obstacles"
	case KindPlanning:
		return "planning telemetry"
	case KindObstacles:
		return "obstacles"
	case KindSystemStatus:
		return "system status"
	case KindReplayStatus:
		return "replay status"
	}
	return string(k)
}
