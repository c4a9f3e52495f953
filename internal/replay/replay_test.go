package replay

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/groundstation/internal/backend"
	"github.com/banshee-data/groundstation/internal/telemetry"
)

func parse(t *testing.T, frame string) telemetry.Message {
	t.Helper()
	fr, err := telemetry.Decode([]byte(frame))
	require.NoError(t, err)
	m, err := telemetry.Parse(fr)
	require.NoError(t, err)
	return m
}

func TestMergeStatus_Partial(t *testing.T) {
	prior := NewStatus()
	prior.Speed = 2.0
	prior.CurrentFile = "Log/a.csv"

	m := parse(t, `{"type":"replay_status","data":{"progress":42}}`)
	next := MergeStatus(prior, m.(telemetry.ReplayStatusUpdate))

	want := prior
	want.Progress = 42
	if diff := cmp.Diff(want, next); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}

	// A present null clears the file name; other fields are untouched.
	m = parse(t, `{"type":"replay_status","data":{"current_file":null}}`)
	cleared := MergeStatus(next, m.(telemetry.ReplayStatusUpdate))
	want.CurrentFile = ""
	if diff := cmp.Diff(want, cleared); diff != "" {
		t.Errorf("cleared status mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeStatus_Full(t *testing.T) {
	m := parse(t, `{"type":"replay_status","data":{
		"is_loaded":true,"is_playing":true,"replay_active":true,"current_file":"Log/b.csv",
		"current_idx":"12","total_rows":300,"total_time":60.5,"speed":0.5,"progress":"10.5","current_time":6}}`)
	next := MergeStatus(NewStatus(), m.(telemetry.ReplayStatusUpdate))
	assert.Equal(t, Status{
		IsLoaded: true, IsPlaying: true, ReplayActive: true, CurrentFile: "Log/b.csv",
		CurrentIndex: 12, TotalRows: 300, TotalTime: 60.5, Speed: 0.5, Progress: 10.5, CurrentTime: 6,
	}, next)
}

func TestApplyResponse(t *testing.T) {
	base := NewStatus()
	base.IsPlaying = true
	base.Progress = 30
	base.CurrentTime = 12

	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, s Status)
	}{
		{"load", `{"type":"replay_response","action":"load","status":"success","total_time":95.5}`, func(t *testing.T, s Status) {
			assert.Equal(t, 95.5, s.TotalTime)
			assert.True(t, s.IsLoaded)
		}},
		{"play", `{"type":"replay_response","action":"play","status":"success"}`, func(t *testing.T, s Status) {
			assert.True(t, s.IsPlaying)
		}},
		{"pause", `{"type":"replay_response","action":"pause","status":"success"}`, func(t *testing.T, s Status) {
			assert.False(t, s.IsPlaying)
			assert.Equal(t, 30.0, s.Progress)
		}},
		{"stop", `{"type":"replay_response","action":"stop","status":"success"}`, func(t *testing.T, s Status) {
			assert.False(t, s.IsPlaying)
			assert.Zero(t, s.Progress)
			assert.Zero(t, s.CurrentTime)
		}},
		{"seek", `{"type":"replay_response","action":"seek","status":"success","progress":75}`, func(t *testing.T, s Status) {
			assert.Equal(t, 75.0, s.Progress)
		}},
		{"set speed", `{"type":"replay_response","action":"set_speed","status":"success","speed":4}`, func(t *testing.T, s Status) {
			assert.Equal(t, 4.0, s.Speed)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := ApplyResponse(base, parse(t, tt.frame).(telemetry.ReplayResponse))
			require.NoError(t, err)
			tt.check(t, next)
		})
	}
}

func TestApplyResponse_FailureNotApplied(t *testing.T) {
	base := NewStatus()
	r := parse(t, `{"type":"replay_response","action":"play","status":"error","message":"no file"}`).(telemetry.ReplayResponse)
	next, err := ApplyResponse(base, r)
	assert.ErrorIs(t, err, ErrActionFailed)
	assert.Contains(t, err.Error(), "no file")
	assert.Equal(t, base, next)
}

func TestCoordinator_OptimisticThenBroadcast(t *testing.T) {
	c := NewCoordinator()
	_, err := c.Acknowledge(parse(t, `{"type":"replay_response","action":"play","status":"success"}`).(telemetry.ReplayResponse))
	require.NoError(t, err)
	assert.True(t, c.Status().IsPlaying)

	// The broadcast is the source of truth.
	c.UpdateStatus(parse(t, `{"type":"replay_status","data":{"is_playing":false}}`).(telemetry.ReplayStatusUpdate))
	assert.False(t, c.Status().IsPlaying)
}

func TestCoordinator_SetMode(t *testing.T) {
	c := NewCoordinator()
	assert.Equal(t, Realtime, c.Mode())

	prev, err := c.SetMode(Replay)
	require.NoError(t, err)
	assert.Equal(t, Realtime, prev)
	assert.Equal(t, Replay, c.Mode())

	_, err = c.SetMode("SIMULATION")
	assert.Error(t, err)
	assert.Equal(t, Replay, c.Mode())
}

func TestClassify(t *testing.T) {
	tests := map[string]string{
		"pwm_1":                  "PWM",
		"GNCBus_CmdValue_height": "GNCBUS",
		"states_height":          "STATES",
		"lat":                    "STATES",
		"ref_p":                  "DATACTRL",
		"ctrl_u1":                "DATACTRL",
		"AvoiFlag_GuideFlag":     "AVOIFLAG",
		"Tele_ftb_Roll":          "DATAFUTABA",
		"Tele_GCS_Mission":       "DATAGCS",
		"param_kp":               "PARAM",
		"esc1_rpm":               "ESC",
		"rel_time":               Other,
		"timestamp":              Other,
	}
	for name, want := range tests {
		assert.Equal(t, want, Classify(name), name)
	}
}

func TestPartition(t *testing.T) {
	got := Partition([]string{"timestamp", "esc1_rpm", "pwm_2", "pwm_1", "states_lat"})
	assert.Equal(t, []Group{
		{Name: "PWM", Variables: []string{"pwm_2", "pwm_1"}},
		{Name: "STATES", Variables: []string{"states_lat"}},
		{Name: "ESC", Variables: []string{"esc1_rpm"}},
		{Name: Other, Variables: []string{"timestamp"}},
	}, got)
	assert.Empty(t, Partition(nil))
}

type fakeSource struct {
	headers backend.ReplayHeaders
	series  backend.SeriesResponse
	err     error
	lastReq backend.SeriesRequest
}

func (f *fakeSource) ReplayHeaders(context.Context) (backend.ReplayHeaders, error) {
	return f.headers, f.err
}

func (f *fakeSource) ReplaySeries(_ context.Context, req backend.SeriesRequest) (backend.SeriesResponse, error) {
	f.lastReq = req
	return f.series, f.err
}

func TestCoordinator_Analysis(t *testing.T) {
	src := &fakeSource{
		headers: backend.ReplayHeaders{File: "Log/a.csv", AllVariables: []string{"pwm_1", "ref_p", "rel_time"}},
		series: backend.SeriesResponse{
			TimeAxis:      []float64{0, 1, 2},
			SeriesData:    map[string][]float64{"pwm_1": {1000, 1500, 1200}},
			TotalPoints:   3,
			SampledPoints: 3,
		},
	}
	c := NewCoordinator()

	h, err := FetchCatalog(context.Background(), src)
	require.NoError(t, err)
	a := c.SetCatalog(h)
	assert.Equal(t, "Log/a.csv", a.File)
	require.Len(t, a.Groups, 3)
	assert.Equal(t, "DATACTRL", a.Groups[1].Name)

	resp, err := FetchSeries(context.Background(), src, []string{"pwm_1", "gone"}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxPoints, src.lastReq.MaxPoints)
	assert.Empty(t, c.Analysis().Selected, "fetching leaves the coordinator untouched")
	set := c.SetSeries([]string{"pwm_1", "gone"}, resp)
	assert.Equal(t, Range{Min: 1000, Max: 1500}, set.Ranges["pwm_1"])
	assert.Equal(t, []string{"gone"}, set.Missing)
	assert.Equal(t, []string{"pwm_1", "gone"}, c.Analysis().Selected)

	src.lastReq = backend.SeriesRequest{}
	_, err = FetchSeries(context.Background(), src, nil, 10)
	assert.Error(t, err)
	assert.Empty(t, src.lastReq.Variables, "invalid selection never reaches the backend")

	src.err = errors.New("backend down")
	_, err = FetchCatalog(context.Background(), src)
	assert.ErrorIs(t, err, src.err)
	assert.ErrorContains(t, err, "load replay catalog")
	assert.Equal(t, "Log/a.csv", c.Analysis().File, "failed reload keeps the previous catalog")
}
