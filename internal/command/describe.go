// Package command builds outbound command envelopes and dispatches them over
// the channel or through the backend's REST API.
package command

import (
	"fmt"
	"sort"
	"strings"
)

// Command kinds understood by the backend.
const (
	CmdIdx           = "cmd_idx"
	CmdMission       = "cmd_mission"
	SetPIDs          = "set_pids"
	GCSCommand       = "gcs_command"
	WaypointsUpload  = "waypoints_upload"
	UpdateConnection = "update_connection"
)

// Params are the JSON parameters of a command.
type Params map[string]interface{}

func (p Params) get(key string, def interface{}) interface{} {
	if v, ok := p[key]; ok && v != nil {
		return v
	}
	return def
}

// Describe renders a one-line, human-readable summary of a command for the
// log.
func Describe(kind string, p Params) string {
	switch kind {
	case CmdIdx:
		return fmt.Sprintf("cmd_idx: cmdId=%v", p.get("cmdId", 0))
	case CmdMission:
		return fmt.Sprintf("cmd_mission: mission=%v value=%v", p.get("cmd_mission", 0), p.get("value", 0))
	case SetPIDs:
		return fmt.Sprintf("set_pids: %d parameters", len(p))
	case GCSCommand:
		return fmt.Sprintf("gcs_command: seq=%v target=(%v, %v, %v) speed=%v",
			p.get("seqId", 0), p.get("targetX", 0), p.get("targetY", 0), p.get("targetZ", 0), p.get("cruiseSpeed", 10))
	case WaypointsUpload:
		n := 0
		if wps, ok := p["waypoints"].([]interface{}); ok {
			n = len(wps)
		}
		return fmt.Sprintf("waypoints_upload: %d waypoints speed=%v", n, p.get("cruiseSpeed", 10))
	case UpdateConnection:
		return fmt.Sprintf("update_connection: %v -> %v", p.get("hostIp", "?"), p.get("remoteIp", "?"))
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: [%s]", kind, strings.Join(keys, ", "))
}
