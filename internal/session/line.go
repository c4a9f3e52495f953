package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/groundstation/internal/telemetry"
	"github.com/banshee-data/groundstation/internal/timeutil"
)

// Category names the kind of update a record line carries.
type Category string

const (
	FlightState Category = "flightState"
	ControlLoop Category = "controlLoop"
	Avoidance   Category = "avoiflag"
	PWM         Category = "pwmData"
)

// Header is the first line written to every record file.
const Header = "timestamp,category,fields..."

// Columns lists the field columns of each category in file order.
var Columns = map[Category][]string{
	FlightState: {
		"roll", "pitch", "yaw",
		"latitude", "longitude", "altitude",
		"velocity_x", "velocity_y", "velocity_z",
		"angular_velocity_x", "angular_velocity_y", "angular_velocity_z",
	},
	ControlLoop: {
		"ref_p", "est_p", "ref_theta", "est_theta", "ref_h", "est_h",
		"ref_vx", "est_vx", "ref_vy", "est_vy", "ref_vz", "est_vz",
		"ctrl_u1", "ctrl_u2", "ctrl_u3", "ctrl_u4",
	},
	Avoidance: {"laser_radar_enabled", "avoidance_flag", "guide_flag"},
	PWM:       {},
}

// FormatLine renders <timestamp>,<category>,<fields>. Categories without
// columns end with a single trailing comma.
func FormatLine(t time.Time, category Category, fields string) string {
	var b strings.Builder
	b.WriteString(timeutil.ISO(t))
	b.WriteByte(',')
	b.WriteString(string(category))
	b.WriteByte(',')
	b.WriteString(fields)
	return b.String()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func join(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = num(v)
	}
	return strings.Join(parts, ",")
}

// legacyFirst reads the flat alias, then the structured key, else 0.
func legacyFirst(s telemetry.Slot[float64]) float64 {
	if s.Legacy.OK {
		return s.Legacy.V
	}
	return s.New.Or(0)
}

// FlightStateFields renders the flight-state columns. Yaw is taken from the
// canonical attitude since it is the displayed heading.
func FlightStateFields(u telemetry.FlightStateUpdate, yaw float64) string {
	return join([]float64{
		legacyFirst(u.Phi), legacyFirst(u.Theta), yaw,
		legacyFirst(u.Lat), legacyFirst(u.Lon), legacyFirst(u.Height),
		legacyFirst(u.VxGS), legacyFirst(u.VyGS), legacyFirst(u.VzGS),
		legacyFirst(u.P), legacyFirst(u.Q), legacyFirst(u.R),
	})
}

// ControlLoopFields renders the control-loop columns.
func ControlLoopFields(u telemetry.ControlLoopUpdate) string {
	v := func(s telemetry.Slot[float64]) float64 { return s.Resolve().Or(0) }
	return join([]float64{
		v(u.RefRoll), v(u.EstRoll), v(u.RefPitch), v(u.EstPitch),
		v(u.RefAlt), v(u.EstAlt), v(u.RefVx), v(u.EstVx),
		v(u.RefVy), v(u.EstVy), v(u.RefVz), v(u.EstVz),
		v(u.CtrlU[0]), v(u.CtrlU[1]), v(u.CtrlU[2]), v(u.CtrlU[3]),
	})
}

// AvoidanceFields renders the avoidance columns from the payload alone:
// the flat alias, then the structured key, else false.
func AvoidanceFields(u telemetry.AvoidanceUpdate) string {
	flag := func(s telemetry.Slot[bool]) string {
		if s.Legacy.OK {
			return strconv.FormatBool(s.Legacy.V)
		}
		return strconv.FormatBool(s.New.Or(false))
	}
	return flag(u.LaserRadarEnabled) + "," + flag(u.AvoidanceFlag) + "," + flag(u.GuideFlag)
}
