package backend

import "encoding/json"

// Object is a JSON object response whose shape the station does not model.
type Object map[string]json.RawMessage

// ReplayFile describes one recorded file available for replay.
type ReplayFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	Date string `json:"date"`
}

type ReplayFiles struct {
	Files []ReplayFile `json:"files"`
	Count int          `json:"count"`
}

type UploadResult struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
}

// ReplayStatus is the full replay status the backend reports. The raw object
// is kept so it can be merged as a partial update.
type ReplayStatus struct {
	Status json.RawMessage `json:"status"`
}

// ReplayControl is a replay control request. Params are merged into the body
// next to action.
type ReplayControl struct {
	Action string
	Params map[string]interface{}
}

func (r ReplayControl) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{}, len(r.Params)+1)
	for k, v := range r.Params {
		body[k] = v
	}
	body["action"] = r.Action
	return json.Marshal(body)
}

// ReplayHeaders is the variable catalog of the loaded replay file.
type ReplayHeaders struct {
	Status         string              `json:"status"`
	File           string              `json:"file"`
	TotalVariables int                 `json:"total_variables"`
	Categories     map[string][]string `json:"categories"`
	AllVariables   []string            `json:"all_variables"`
}

type SeriesRequest struct {
	Variables []string `json:"variables"`
	MaxPoints int      `json:"max_points,omitempty"`
}

// SeriesResponse holds sampled series for the requested variables.
type SeriesResponse struct {
	Status        string               `json:"status"`
	TimeAxis      []float64            `json:"time_axis"`
	SeriesData    map[string][]float64 `json:"series_data"`
	TotalPoints   int                  `json:"total_points"`
	SampledPoints int                  `json:"sampled_points"`
}

// CommandRequest is the REST command body.
type CommandRequest struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params"`
}

// UDPStatus is the backend's telemetry link status.
type UDPStatus struct {
	Status string `json:"status"`
	Data   struct {
		Connected bool            `json:"connected"`
		Config    json.RawMessage `json:"config"`
	} `json:"data"`
}

type RecordingStatus struct {
	IsActive    bool            `json:"is_active"`
	SessionID   string          `json:"session_id"`
	SessionInfo json.RawMessage `json:"session_info"`
}

type RecordingSession struct {
	SessionID string `json:"session_id"`
	FileCount int    `json:"file_count"`
	Path      string `json:"path"`
}

type RecordingSessions struct {
	Sessions []RecordingSession `json:"sessions"`
}
