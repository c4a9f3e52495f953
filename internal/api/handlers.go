package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/groundstation/internal/channel"
	"github.com/banshee-data/groundstation/internal/command"
	"github.com/banshee-data/groundstation/internal/history"
	"github.com/banshee-data/groundstation/internal/httputil"
	"github.com/banshee-data/groundstation/internal/replay"
	"github.com/banshee-data/groundstation/internal/station"
)

// CommandRequest is the body of POST /api/command. Rest selects the backend's
// REST endpoint instead of the channel.
type CommandRequest struct {
	Command string         `json:"command"`
	Params  command.Params `json:"params"`
	Rest    bool           `json:"rest"`
}

// RecordingRequest is the body of POST /api/recording.
type RecordingRequest struct {
	Action string `json:"action"`
}

// LogRequest is the body of POST /api/logs.
type LogRequest struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SeriesRequest is the body of POST /api/replay/series.
type SeriesRequest struct {
	Variables []string `json:"variables"`
	MaxPoints int      `json:"max_points"`
}

var replayActions = map[string]bool{
	replay.ActionLoad:     true,
	replay.ActionPlay:     true,
	replay.ActionPause:    true,
	replay.ActionStop:     true,
	replay.ActionSeek:     true,
	replay.ActionSetSpeed: true,
}

// writeBackendError maps a failed backend call onto a status code.
func writeBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, station.ErrNoBackend) {
		httputil.ServiceUnavailable(w, err.Error())
		return
	}
	httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
}

func (s *Server) showState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.st.Snapshot())
}

// showHistory returns every chart series, or those named in ?series=a,b.
func (s *Server) showHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	q := r.URL.Query().Get("series")
	if q == "" {
		httputil.WriteJSONOK(w, s.st.History())
		return
	}
	out := make(map[string][]history.Sample)
	for _, name := range strings.Split(q, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		samples, ok := s.st.Series(name)
		if !ok {
			httputil.NotFound(w, fmt.Sprintf("unknown series: %s", name))
			return
		}
		out[name] = samples
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showHistorySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.st.HistorySummary())
}

func (s *Server) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		points, length := s.st.Trajectory()
		httputil.WriteJSONOK(w, map[string]interface{}{
			"points": points,
			"length": length,
		})
	case http.MethodDelete:
		s.st.ClearTrajectory()
		httputil.WriteJSONOK(w, map[string]string{"status": "cleared"})
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		level := history.Level(r.URL.Query().Get("level"))
		switch level {
		case "", history.LevelDebug, history.LevelInfo, history.LevelWarning, history.LevelError:
		default:
			httputil.BadRequest(w, fmt.Sprintf("invalid level %q", level))
			return
		}
		httputil.WriteJSONOK(w, s.st.Logs(level))
	case http.MethodPost:
		var req LogRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if req.Message == "" {
			httputil.BadRequest(w, "message is required")
			return
		}
		entry := s.st.AddLog(history.ParseLevel(req.Level), req.Message)
		httputil.WriteJSON(w, http.StatusCreated, entry)
	case http.MethodDelete:
		s.st.ClearLogs()
		httputil.WriteJSONOK(w, map[string]string{"status": "cleared"})
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.st.Recording())
	case http.MethodPost:
		var req RecordingRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		var err error
		switch req.Action {
		case "start":
			_, err = s.st.StartRecording(r.Context())
		case "stop":
			_, err = s.st.StopRecording(r.Context())
		default:
			httputil.BadRequest(w, `action must be "start" or "stop"`)
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, s.st.Recording())
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req CommandRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Command == "" {
		httputil.BadRequest(w, "command is required")
		return
	}

	if req.Rest {
		resp, err := s.st.SubmitCommand(r.Context(), req.Command, req.Params)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{"status": "submitted", "response": resp})
		return
	}

	if _, err := s.st.SendCommand(r.Context(), req.Command, req.Params); err != nil {
		if errors.Is(err, command.ErrChannelUnavailable) {
			httputil.ServiceUnavailable(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("failed to send command: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "sent"})
}

// showReplay reports the mode, replay status and analysis sub-state. With
// ?refresh=true the full status is fetched from the backend first.
func (s *Server) showReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	status := s.st.ReplayStatus()
	if r.URL.Query().Get("refresh") == "true" {
		var err error
		if status, err = s.st.RefreshReplayStatus(r.Context()); err != nil {
			writeBackendError(w, err)
			return
		}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"mode":     s.st.Snapshot().Mode,
		"status":   status,
		"analysis": s.st.ReplayAnalysis(),
	})
}

// controlReplay forwards {action, ...params} to the backend.
func (s *Server) controlReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var body map[string]interface{}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	action, _ := body["action"].(string)
	if !replayActions[action] {
		httputil.BadRequest(w, fmt.Sprintf("invalid replay action %q", action))
		return
	}
	delete(body, "action")
	resp, err := s.st.ControlReplay(r.Context(), action, body)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) loadReplayCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	a, err := s.st.LoadReplayCatalog(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	httputil.WriteJSONOK(w, a)
}

func (s *Server) loadReplaySeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req SeriesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if _, err := replay.SeriesRequest(req.Variables, req.MaxPoints); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	set, err := s.st.LoadReplaySeries(r.Context(), req.Variables, req.MaxPoints)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	httputil.WriteJSONOK(w, set)
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if err := s.st.Connect(r.Context()); err != nil {
		if errors.Is(err, channel.ErrAlreadyRunning) {
			httputil.WriteJSONError(w, http.StatusConflict, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "connecting"})
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.st.Disconnect()
	httputil.WriteJSONOK(w, map[string]string{"status": "disconnected"})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	conn := s.st.Connection()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"connection": conn,
		"extraKeys":  conn.ExtraKeys(),
		"settings":   s.settings,
	})
}
