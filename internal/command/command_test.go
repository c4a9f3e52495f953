package command

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/groundstation/internal/backend"
	"github.com/banshee-data/groundstation/internal/history"
	"github.com/banshee-data/groundstation/internal/httputil"
	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

type fakeChannel struct {
	connected bool
	err       error
	frames    [][]byte
}

func (f *fakeChannel) Connected() bool { return f.connected }

func (f *fakeChannel) Send(_ context.Context, frame []byte) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

type logLine struct {
	level history.Level
	msg   string
}

func newDispatcher(ch Sender, rest Submitter) (*Dispatcher, *[]logLine) {
	var lines []logLine
	clock := timeutil.NewMockClock(time.UnixMilli(1_700_000_000_123))
	d := NewDispatcher(ch, rest, func(l history.Level, m string) { lines = append(lines, logLine{l, m}) }, clock, nil)
	return d, &lines
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		kind string
		p    Params
		want string
	}{
		{CmdIdx, Params{"cmdId": 5.0}, "cmd_idx: cmdId=5"},
		{CmdMission, Params{"cmd_mission": 3.0, "value": 1.5}, "cmd_mission: mission=3 value=1.5"},
		{SetPIDs, Params{"kp": 1.0, "ki": 0.1, "kd": 0.0}, "set_pids: 3 parameters"},
		{GCSCommand, Params{"seqId": 1.0, "targetX": 10.0, "targetY": -2.0, "targetZ": 5.0}, "gcs_command: seq=1 target=(10, -2, 5) speed=10"},
		{WaypointsUpload, Params{"waypoints": []interface{}{1, 2}, "cruiseSpeed": 8.0}, "waypoints_upload: 2 waypoints speed=8"},
		{UpdateConnection, Params{"hostIp": "192.168.1.1", "remoteIp": "192.168.1.10"}, "update_connection: 192.168.1.1 -> 192.168.1.10"},
		{"arm", Params{"force": true, "delay": 1.0}, "arm: [delay, force]"},
		{"noop", nil, "noop: []"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.kind, tt.p), tt.kind)
	}
}

func TestSend_NotConnected(t *testing.T) {
	ch := &fakeChannel{}
	d, lines := newDispatcher(ch, nil)

	ok, err := d.Send(context.Background(), CmdIdx, Params{"cmdId": 2.0})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrChannelUnavailable)
	assert.Empty(t, ch.frames)
	require.Len(t, *lines, 1)
	assert.Equal(t, history.LevelWarning, (*lines)[0].level)

	ok, err = NewDispatcher(nil, nil, nil, nil, nil).Send(context.Background(), CmdIdx, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestSend_Envelope(t *testing.T) {
	ch := &fakeChannel{connected: true}
	d, lines := newDispatcher(ch, nil)

	ok, err := d.Send(context.Background(), CmdMission, Params{"cmd_mission": 4, "value": 2.5})
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, ch.frames, 1)
	assert.JSONEq(t, `{"type":"command","command":"cmd_mission","params":{"cmd_mission":4,"value":2.5},"timestamp":1700000000123}`, string(ch.frames[0]))
	assert.Equal(t, "command sent: cmd_mission: mission=4 value=2.5", (*lines)[0].msg)
}

func TestSend_WriteError(t *testing.T) {
	boom := errors.New("broken pipe")
	d, lines := newDispatcher(&fakeChannel{connected: true, err: boom}, nil)
	ok, err := d.Send(context.Background(), CmdIdx, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, history.LevelError, (*lines)[0].level)
}

func TestSendRecording(t *testing.T) {
	ch := &fakeChannel{connected: true}
	d, _ := newDispatcher(ch, nil)
	ok, err := d.SendRecording(context.Background(), "start")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"type":"recording","action":"start"}`, string(ch.frames[0]))

	ch.connected = false
	_, err = d.SendRecording(context.Background(), "stop")
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestSubmit(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"type":"command_response","command":"cmd_idx","status":"success"}`)
	mock.AddResponse(http.StatusInternalServerError, "encoder failed")
	client := backend.NewClient("http://gcs", mock, nil)
	d, lines := newDispatcher(nil, client)

	resp, err := d.Submit(context.Background(), CmdIdx, Params{"cmdId": 7})
	require.NoError(t, err)
	var status string
	require.NoError(t, json.Unmarshal(resp["status"], &status))
	assert.Equal(t, "success", status)
	assert.Equal(t, "command submitted: cmd_idx: cmdId=7 - success", (*lines)[0].msg)
	assert.JSONEq(t, `{"type":"cmd_idx","params":{"cmdId":7}}`, mock.GetBody(0))

	resp, err = d.Submit(context.Background(), CmdIdx, Params{"cmdId": 7})
	assert.Nil(t, resp)
	var reqErr *backend.RequestError
	assert.ErrorAs(t, err, &reqErr)
	assert.Equal(t, history.LevelError, (*lines)[1].level)
}

func TestSubmit_NoBackend(t *testing.T) {
	d, lines := newDispatcher(nil, nil)
	_, err := d.Submit(context.Background(), "arm", nil)
	assert.ErrorIs(t, err, backend.ErrRequestFailed)
	assert.Len(t, *lines, 1)
}
