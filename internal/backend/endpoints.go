package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Connection configuration.

func (c *Client) ConnectionConfig(ctx context.Context) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodGet, "/api/config/connection", nil, &out)
	return out, err
}

func (c *Client) UpdateConnectionConfig(ctx context.Context, cfg interface{}) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/config/connection", cfg, &out)
	return out, err
}

// Telemetry link.

func (c *Client) StartUDP(ctx context.Context) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/udp/start", struct{}{}, &out)
	return out, err
}

func (c *Client) StopUDP(ctx context.Context) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/udp/stop", struct{}{}, &out)
	return out, err
}

func (c *Client) UDPStatus(ctx context.Context) (UDPStatus, error) {
	var out UDPStatus
	err := c.Do(ctx, http.MethodGet, "/api/udp/status", nil, &out)
	return out, err
}

// Log configuration.

func (c *Client) LogConfig(ctx context.Context) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodGet, "/api/config/log", nil, &out)
	return out, err
}

func (c *Client) UpdateLogConfig(ctx context.Context, cfg interface{}) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/config/log", cfg, &out)
	return out, err
}

func (c *Client) SaveLogEntry(ctx context.Context, entry interface{}) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/log/save", entry, &out)
	return out, err
}

// Backend-side recording.

func (c *Client) RecordingStatus(ctx context.Context) (RecordingStatus, error) {
	var out RecordingStatus
	err := c.Do(ctx, http.MethodGet, "/api/recording/status", nil, &out)
	return out, err
}

func (c *Client) StartRecording(ctx context.Context, cfg interface{}) (Object, error) {
	if cfg == nil {
		cfg = struct{}{}
	}
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/recording/start", cfg, &out)
	return out, err
}

func (c *Client) StopRecording(ctx context.Context) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/recording/stop", struct{}{}, &out)
	return out, err
}

func (c *Client) RecordingSessions(ctx context.Context) (RecordingSessions, error) {
	var out RecordingSessions
	err := c.Do(ctx, http.MethodGet, "/api/recording/sessions", nil, &out)
	return out, err
}

// DSM reports.

func (c *Client) GenerateDSMReport(ctx context.Context, cfg interface{}) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/dsm/generate", cfg, &out)
	return out, err
}

func (c *Client) DSMConfig(ctx context.Context) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodGet, "/api/dsm/config", nil, &out)
	return out, err
}

func (c *Client) UpdateDSMConfig(ctx context.Context, cfg interface{}) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/dsm/config", cfg, &out)
	return out, err
}

// ExportDSM exports a session's data; format defaults to json.
func (c *Client) ExportDSM(ctx context.Context, sessionID, format string) (Object, error) {
	if format == "" {
		format = "json"
	}
	endpoint := fmt.Sprintf("/api/dsm/export/%s?format=%s", url.PathEscape(sessionID), url.QueryEscape(format))
	var out Object
	err := c.Do(ctx, http.MethodGet, endpoint, nil, &out)
	return out, err
}

// Replay.

func (c *Client) ReplayFiles(ctx context.Context) (ReplayFiles, error) {
	var out ReplayFiles
	err := c.Do(ctx, http.MethodGet, "/api/replay/files", nil, &out)
	return out, err
}

// UploadReplayFile sends data as the multipart field "file".
func (c *Client) UploadReplayFile(ctx context.Context, name string, data io.Reader) (UploadResult, error) {
	var out UploadResult
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return out, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	const endpoint = "/api/replay/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	err = c.send(req, endpoint, &out)
	return out, err
}

func (c *Client) ReplayStatus(ctx context.Context) (ReplayStatus, error) {
	var out ReplayStatus
	err := c.Do(ctx, http.MethodGet, "/api/replay/status", nil, &out)
	return out, err
}

func (c *Client) ControlReplay(ctx context.Context, ctl ReplayControl) (Object, error) {
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/replay/control", ctl, &out)
	return out, err
}

func (c *Client) ReplayHeaders(ctx context.Context) (ReplayHeaders, error) {
	var out ReplayHeaders
	err := c.Do(ctx, http.MethodGet, "/api/replay/headers", nil, &out)
	return out, err
}

func (c *Client) ReplaySeries(ctx context.Context, req SeriesRequest) (SeriesResponse, error) {
	var out SeriesResponse
	err := c.Do(ctx, http.MethodPost, "/api/replay/series", req, &out)
	return out, err
}

// Commands.

func (c *Client) SubmitCommand(ctx context.Context, cmd CommandRequest) (Object, error) {
	if cmd.Params == nil {
		cmd.Params = map[string]interface{}{}
	}
	var out Object
	err := c.Do(ctx, http.MethodPost, "/api/command", cmd, &out)
	return out, err
}
