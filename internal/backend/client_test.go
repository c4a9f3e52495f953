package backend

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/groundstation/internal/httputil"
	"github.com/banshee-data/groundstation/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func newTestClient() (*Client, *httputil.MockHTTPClient) {
	mock := httputil.NewMockHTTPClient()
	return NewClient("http://gcs:8000/", mock, nil), mock
}

func TestClient_Defaults(t *testing.T) {
	c := NewClient("", nil, nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, _ = newTestClient()
	assert.Equal(t, "http://gcs:8000", c.BaseURL())
}

func TestClient_RequestError(t *testing.T) {
	c, mock := newTestClient()
	mock.Route(http.MethodGet, "/api/replay/headers", http.StatusBadRequest, "no replay file loaded")

	_, err := c.ReplayHeaders(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "API request failed: 400 - no replay file loaded", err.Error())
}

func TestClient_TransportAndDecodeErrors(t *testing.T) {
	c, mock := newTestClient()
	mock.AddErrorResponse(errors.New("connection refused"))
	_, err := c.UDPStatus(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)

	mock.AddResponse(http.StatusOK, "not json")
	_, err = c.UDPStatus(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)

	mock.AddResponse(http.StatusOK, "")
	_, err = c.StopUDP(context.Background())
	assert.NoError(t, err, "empty body is accepted")
}

func TestClient_EndpointTable(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
		body   string
	}{
		{"connection get", func(c *Client) error { _, err := c.ConnectionConfig(ctx); return err }, "GET", "/api/config/connection", ""},
		{"connection update", func(c *Client) error {
			_, err := c.UpdateConnectionConfig(ctx, map[string]int{"hostPort": 18504})
			return err
		}, "POST", "/api/config/connection", `{"hostPort":18504}`},
		{"udp start", func(c *Client) error { _, err := c.StartUDP(ctx); return err }, "POST", "/api/udp/start", `{}`},
		{"udp stop", func(c *Client) error { _, err := c.StopUDP(ctx); return err }, "POST", "/api/udp/stop", `{}`},
		{"udp status", func(c *Client) error { _, err := c.UDPStatus(ctx); return err }, "GET", "/api/udp/status", ""},
		{"log config", func(c *Client) error { _, err := c.LogConfig(ctx); return err }, "GET", "/api/config/log", ""},
		{"log config update", func(c *Client) error {
			_, err := c.UpdateLogConfig(ctx, map[string]string{"logFormat": "csv"})
			return err
		}, "POST", "/api/config/log", `{"logFormat":"csv"}`},
		{"log save", func(c *Client) error {
			_, err := c.SaveLogEntry(ctx, map[string]string{"category": "fcs"})
			return err
		}, "POST", "/api/log/save", `{"category":"fcs"}`},
		{"recording status", func(c *Client) error { _, err := c.RecordingStatus(ctx); return err }, "GET", "/api/recording/status", ""},
		{"recording start", func(c *Client) error { _, err := c.StartRecording(ctx, nil); return err }, "POST", "/api/recording/start", `{}`},
		{"recording stop", func(c *Client) error { _, err := c.StopRecording(ctx); return err }, "POST", "/api/recording/stop", `{}`},
		{"recording sessions", func(c *Client) error { _, err := c.RecordingSessions(ctx); return err }, "GET", "/api/recording/sessions", ""},
		{"dsm generate", func(c *Client) error {
			_, err := c.GenerateDSMReport(ctx, map[string]string{"session_id": "s1"})
			return err
		}, "POST", "/api/dsm/generate", `{"session_id":"s1"}`},
		{"dsm config", func(c *Client) error { _, err := c.DSMConfig(ctx); return err }, "GET", "/api/dsm/config", ""},
		{"dsm config update", func(c *Client) error {
			_, err := c.UpdateDSMConfig(ctx, map[string]bool{"enabled": true})
			return err
		}, "POST", "/api/dsm/config", `{"enabled":true}`},
		{"dsm export", func(c *Client) error { _, err := c.ExportDSM(ctx, "s 1", ""); return err }, "GET", "/api/dsm/export/s%201", ""},
		{"replay files", func(c *Client) error { _, err := c.ReplayFiles(ctx); return err }, "GET", "/api/replay/files", ""},
		{"replay status", func(c *Client) error { _, err := c.ReplayStatus(ctx); return err }, "GET", "/api/replay/status", ""},
		{"replay control", func(c *Client) error {
			_, err := c.ControlReplay(ctx, ReplayControl{Action: "seek", Params: map[string]interface{}{"progress_percent": 40}})
			return err
		}, "POST", "/api/replay/control", `{"action":"seek","progress_percent":40}`},
		{"replay headers", func(c *Client) error { _, err := c.ReplayHeaders(ctx); return err }, "GET", "/api/replay/headers", ""},
		{"replay series", func(c *Client) error {
			_, err := c.ReplaySeries(ctx, SeriesRequest{Variables: []string{"pwm_1"}, MaxPoints: 100})
			return err
		}, "POST", "/api/replay/series", `{"variables":["pwm_1"],"max_points":100}`},
		{"command", func(c *Client) error {
			_, err := c.SubmitCommand(ctx, CommandRequest{Type: "cmd_idx"})
			return err
		}, "POST", "/api/command", `{"type":"cmd_idx","params":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newTestClient()
			require.NoError(t, tt.call(c))
			require.Equal(t, 1, mock.RequestCount())
			req := mock.GetRequest(0)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.path, req.URL.EscapedPath())
			if tt.body != "" {
				assert.JSONEq(t, tt.body, mock.GetBody(0))
			} else {
				assert.Empty(t, mock.GetBody(0))
			}
		})
	}
}

func TestClient_DecodesTypedResponses(t *testing.T) {
	c, mock := newTestClient()
	mock.Route(http.MethodPost, "/api/replay/series", http.StatusOK, `{
		"status":"success","time_axis":[0,0.5,1],
		"series_data":{"pwm_1":[1000,1100,1200]},
		"total_points":3,"sampled_points":3}`)
	mock.Route(http.MethodGet, "/api/replay/files", http.StatusOK,
		`{"type":"replay_files","files":[{"name":"a.csv","path":"Log/a.csv","size":12,"date":"2025-03-14 09:26:53"}],"count":1}`)

	series, err := c.ReplaySeries(context.Background(), SeriesRequest{Variables: []string{"pwm_1"}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1100, 1200}, series.SeriesData["pwm_1"])
	assert.Equal(t, 3, series.SampledPoints)

	files, err := c.ReplayFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files.Files, 1)
	assert.Equal(t, "Log/a.csv", files.Files[0].Path)
}

func TestClient_UploadReplayFile(t *testing.T) {
	c, mock := newTestClient()
	mock.AddResponse(http.StatusOK, `{"status":"success","file_path":"Log/flight.csv"}`)

	res, err := c.UploadReplayFile(context.Background(), "flight.csv", strings.NewReader("timestamp,pwm_1\n0,1000\n"))
	require.NoError(t, err)
	assert.Equal(t, "Log/flight.csv", res.FilePath)

	req := mock.GetRequest(0)
	require.NoError(t, req.ParseMultipartForm(1<<20))
	f, hdr, err := req.FormFile("file")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "flight.csv", hdr.Filename)
}

func TestMetricLabel(t *testing.T) {
	assert.Equal(t, "/api/dsm/export", metricLabel("/api/dsm/export/abc?format=csv"))
	assert.Equal(t, "/api/udp/status", metricLabel("/api/udp/status"))
}
