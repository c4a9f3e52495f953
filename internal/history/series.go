package history

import (
	"github.com/banshee-data/groundstation/internal/telemetry"
	"github.com/banshee-data/groundstation/internal/timeutil"
)

// SeriesCapacity bounds every chart series.
const SeriesCapacity = 500

// Chart series names. Membership is fixed.
const (
	RollTarget     = "rollTarget"
	RollActual     = "rollActual"
	PitchTarget    = "pitchTarget"
	PitchActual    = "pitchActual"
	YawTarget      = "yawTarget"
	YawActual      = "yawActual"
	SpeedTarget    = "speedTarget"
	SpeedActual    = "speedActual"
	AltitudeTarget = "altitudeTarget"
	AltitudeActual = "altitudeActual"
	ControlU1      = "controlU1"
	ControlU2      = "controlU2"
	ControlU3      = "controlU3"
	ControlU4      = "controlU4"
	VelocityX      = "velocityX"
	VelocityY      = "velocityY"
	VelocityZ      = "velocityZ"
	PWM1           = "pwm1"
	PWM2           = "pwm2"
	PWM3           = "pwm3"
	PWM4           = "pwm4"
	PWM5           = "pwm5"
	PWM6           = "pwm6"
	PWM7           = "pwm7"
	PWM8           = "pwm8"
)

// SeriesNames lists the series in display order.
var SeriesNames = []string{
	RollTarget, RollActual, PitchTarget, PitchActual, YawTarget, YawActual,
	SpeedTarget, SpeedActual, AltitudeTarget, AltitudeActual,
	ControlU1, ControlU2, ControlU3, ControlU4,
	VelocityX, VelocityY, VelocityZ,
	PWM1, PWM2, PWM3, PWM4, PWM5, PWM6, PWM7, PWM8,
}

var pwmSeries = [telemetry.PWMChannels]string{PWM1, PWM2, PWM3, PWM4, PWM5, PWM6, PWM7, PWM8}

var controlUSeries = [4]string{ControlU1, ControlU2, ControlU3, ControlU4}

// Sample is one chart point. Timestamp is in epoch milliseconds.
type Sample struct {
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
}

// Recorder owns the chart series.
type Recorder struct {
	clock  timeutil.Clock
	series map[string]*Ring[Sample]
}

// NewRecorder creates every series seeded with one default sample so that
// consumers never observe an empty series. PWM series start at the idle
// value, the rest at zero.
func NewRecorder(clock timeutil.Clock) *Recorder {
	r := &Recorder{
		clock:  timeutil.OrReal(clock),
		series: make(map[string]*Ring[Sample], len(SeriesNames)),
	}
	now := timeutil.UnixMillis(r.clock.Now())
	for _, name := range SeriesNames {
		ring := NewRing[Sample](SeriesCapacity)
		ring.Push(Sample{Value: seedValue(name), Timestamp: now})
		r.series[name] = ring
	}
	return r
}

func seedValue(name string) float64 {
	for _, p := range pwmSeries {
		if p == name {
			return telemetry.DefaultPWM
		}
	}
	return 0
}

func (r *Recorder) push(name string, v float64, ts int64) {
	r.series[name].Push(Sample{Value: v, Timestamp: ts})
}

// RecordFlightState appends attitude, altitude and ground velocity samples
// for each quantity whose structured key or legacy alias appeared in the
// payload. The structured value is preferred, then the legacy alias, then
// the current canonical value. It returns the number of samples appended.
func (r *Recorder) RecordFlightState(u telemetry.FlightStateUpdate, current telemetry.FlightState) int {
	ts := timeutil.UnixMillis(r.clock.Now())
	rows := []struct {
		slot    telemetry.Slot[float64]
		current float64
		name    string
	}{
		{u.Phi, current.Phi, RollActual},
		{u.Theta, current.Theta, PitchActual},
		{u.Psi, current.Psi, YawActual},
		{u.Height, current.Height, AltitudeActual},
		{u.VxGS, current.VxGS, VelocityX},
		{u.VyGS, current.VyGS, VelocityY},
		{u.VzGS, current.VzGS, VelocityZ},
	}
	n := 0
	for _, row := range rows {
		if !row.slot.Seen {
			continue
		}
		r.push(row.name, row.slot.Preferred().Or(row.current), ts)
		n++
	}
	return n
}

// RecordControlLoop appends target/actual samples for roll, pitch, altitude
// and speed, and the four control outputs.
func (r *Recorder) RecordControlLoop(u telemetry.ControlLoopUpdate) int {
	ts := timeutil.UnixMillis(r.clock.Now())
	rows := []struct {
		slot telemetry.Slot[float64]
		name string
	}{
		{u.RefRoll, RollTarget},
		{u.EstRoll, RollActual},
		{u.RefPitch, PitchTarget},
		{u.EstPitch, PitchActual},
		{u.RefAlt, AltitudeTarget},
		{u.EstAlt, AltitudeActual},
		{u.RefVx, SpeedTarget},
		{u.EstVx, SpeedActual},
		{u.CtrlU[0], controlUSeries[0]},
		{u.CtrlU[1], controlUSeries[1]},
		{u.CtrlU[2], controlUSeries[2]},
		{u.CtrlU[3], controlUSeries[3]},
	}
	n := 0
	for _, row := range rows {
		if v := row.slot.Resolve(); v.OK {
			r.push(row.name, v.V, ts)
			n++
		}
	}
	return n
}

// RecordPWM appends one sample per usable channel, up to eight.
func (r *Recorder) RecordPWM(u telemetry.PWMUpdate) int {
	ts := timeutil.UnixMillis(r.clock.Now())
	n := 0
	for i, v := range u.Channels {
		if i >= len(pwmSeries) {
			break
		}
		if v.OK {
			r.push(pwmSeries[i], v.V, ts)
			n++
		}
	}
	return n
}

// Series returns a copy of the named series, oldest first.
func (r *Recorder) Series(name string) ([]Sample, bool) {
	ring, ok := r.series[name]
	if !ok {
		return nil, false
	}
	return ring.Items(), true
}

// Latest returns the newest sample of the named series.
func (r *Recorder) Latest(name string) (Sample, bool) {
	ring, ok := r.series[name]
	if !ok {
		return Sample{}, false
	}
	return ring.Last()
}

// Snapshot copies every series.
func (r *Recorder) Snapshot() map[string][]Sample {
	out := make(map[string][]Sample, len(r.series))
	for name, ring := range r.series {
		out[name] = ring.Items()
	}
	return out
}

// Summaries summarizes every series.
func (r *Recorder) Summaries() map[string]Summary {
	out := make(map[string]Summary, len(r.series))
	for name, ring := range r.series {
		out[name] = Summarize(ring.Items())
	}
	return out
}
