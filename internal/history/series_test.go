package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/groundstation/internal/telemetry"
	"github.com/banshee-data/groundstation/internal/timeutil"
)

var epoch = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func parse(t *testing.T, frame string) telemetry.Message {
	t.Helper()
	fr, err := telemetry.Decode([]byte(frame))
	require.NoError(t, err)
	m, err := telemetry.Parse(fr)
	require.NoError(t, err)
	return m
}

func TestRecorder_Seeded(t *testing.T) {
	r := NewRecorder(timeutil.NewMockClock(epoch))
	for _, name := range SeriesNames {
		s, ok := r.Series(name)
		require.True(t, ok, name)
		require.Len(t, s, 1, name)
		assert.Equal(t, epoch.UnixMilli(), s[0].Timestamp)
	}
	s, _ := r.Series(PWM3)
	assert.Equal(t, 1000.0, s[0].Value)
	s, _ = r.Series(RollActual)
	assert.Equal(t, 0.0, s[0].Value)

	_, ok := r.Series("nope")
	assert.False(t, ok)
}

func TestRecorder_PWMArray(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	r := NewRecorder(clock)
	clock.Advance(time.Second)

	m := parse(t, `{"type":"fcs_pwms","data":[1000,1200,1300,1400,1500,1600,1700,1800]}`)
	n := r.RecordPWM(m.(telemetry.PWMUpdate))
	assert.Equal(t, 8, n)

	for i, name := range []string{PWM1, PWM2, PWM3, PWM4, PWM5, PWM6, PWM7, PWM8} {
		s, _ := r.Series(name)
		require.Len(t, s, 2, name)
		want := []float64{1000, 1200, 1300, 1400, 1500, 1600, 1700, 1800}[i]
		assert.Equal(t, want, s[1].Value, name)
		assert.Equal(t, epoch.Add(time.Second).UnixMilli(), s[1].Timestamp)
	}
}

func TestRecorder_FlightStateFallbacks(t *testing.T) {
	r := NewRecorder(timeutil.NewMockClock(epoch))
	current := telemetry.FlightState{Phi: 7, Theta: 8}

	// New key beats legacy alias; an unusable key falls back to the current
	// value; absent quantities are not sampled.
	m := parse(t, `{"type":"fcs_states","data":{"states_phi":1,"roll":2,"pitch":null,"altitude":12}}`)
	n := r.RecordFlightState(m.(telemetry.FlightStateUpdate), current)
	assert.Equal(t, 3, n)

	roll, _ := r.Latest(RollActual)
	assert.Equal(t, 1.0, roll.Value)
	pitch, _ := r.Latest(PitchActual)
	assert.Equal(t, 8.0, pitch.Value)
	alt, _ := r.Latest(AltitudeActual)
	assert.Equal(t, 12.0, alt.Value)

	yaw, _ := r.Series(YawActual)
	assert.Len(t, yaw, 1)
}

func TestRecorder_ControlLoop(t *testing.T) {
	r := NewRecorder(timeutil.NewMockClock(epoch))
	m := parse(t, `{"type":"fcs_datactrl","data":{"ref_p":1,"est_p":2,"ref_h":10,"est_vx":"3.5","ctrl_u3":0.4}}`)
	n := r.RecordControlLoop(m.(telemetry.ControlLoopUpdate))
	assert.Equal(t, 5, n)

	for name, want := range map[string]float64{
		RollTarget: 1, RollActual: 2, AltitudeTarget: 10, SpeedActual: 3.5, ControlU3: 0.4,
	} {
		s, _ := r.Latest(name)
		assert.Equal(t, want, s.Value, name)
	}
	s, _ := r.Series(PitchTarget)
	assert.Len(t, s, 1)
}

func TestRecorder_BoundedAtCapacity(t *testing.T) {
	r := NewRecorder(timeutil.NewMockClock(epoch))
	for i := range SeriesCapacity + 20 {
		r.RecordPWM(telemetry.PWMUpdate{Channels: []telemetry.Opt[float64]{telemetry.Some(float64(i))}})
	}
	s, _ := r.Series(PWM1)
	require.Len(t, s, SeriesCapacity)
	assert.Equal(t, 20.0, s[0].Value)
	assert.Equal(t, float64(SeriesCapacity+19), s[len(s)-1].Value)

	snap := r.Snapshot()
	assert.Len(t, snap, len(SeriesNames))
	assert.Len(t, snap[PWM2], 1)
}
