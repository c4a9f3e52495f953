// Package replay tracks the system mode and the state of a backend-driven
// replay, and organizes the replay analysis catalog.
package replay

import (
	"errors"
	"fmt"

	"github.com/banshee-data/groundstation/internal/telemetry"
)

// Mode is the system mode.
type Mode string

const (
	Realtime Mode = "REALTIME"
	Replay   Mode = "REPLAY"
)

// Replay control actions.
const (
	ActionLoad     = "load"
	ActionPlay     = "play"
	ActionPause    = "pause"
	ActionStop     = "stop"
	ActionSeek     = "seek"
	ActionSetSpeed = "set_speed"
)

// ErrActionFailed is returned for acknowledgements whose status is not
// success.
var ErrActionFailed = errors.New("replay action failed")

// Status is the replay state as last reported or optimistically updated.
type Status struct {
	IsLoaded     bool    `json:"isLoaded"`
	IsPlaying    bool    `json:"isPlaying"`
	ReplayActive bool    `json:"replayActive"`
	CurrentFile  string  `json:"currentFile"`
	CurrentIndex int     `json:"currentIndex"`
	TotalRows    int     `json:"totalRows"`
	TotalTime    float64 `json:"totalTime"`
	Speed        float64 `json:"speed"`
	Progress     float64 `json:"progress"`
	CurrentTime  float64 `json:"currentTime"`
}

// NewStatus returns the idle status.
func NewStatus() Status { return Status{Speed: 1} }

func set[T any](dst *T, s telemetry.Slot[T]) {
	if v := s.Resolve(); v.OK {
		*dst = v.V
	}
}

// MergeStatus applies only the fields present in u.
func MergeStatus(prior Status, u telemetry.ReplayStatusUpdate) Status {
	next := prior
	set(&next.IsLoaded, u.IsLoaded)
	set(&next.IsPlaying, u.IsPlaying)
	set(&next.ReplayActive, u.ReplayActive)
	if u.CurrentFile.OK {
		next.CurrentFile = u.CurrentFile.V
	}
	set(&next.CurrentIndex, u.CurrentIndex)
	set(&next.TotalRows, u.TotalRows)
	set(&next.TotalTime, u.TotalTime)
	set(&next.Speed, u.Speed)
	set(&next.Progress, u.Progress)
	set(&next.CurrentTime, u.CurrentTime)
	return next
}

// ApplyResponse updates prior optimistically from a control acknowledgement.
// The next full status broadcast may overwrite any of these values.
func ApplyResponse(prior Status, r telemetry.ReplayResponse) (Status, error) {
	if r.Status != "success" {
		msg := r.Message
		if msg == "" {
			msg = r.Status
		}
		return prior, fmt.Errorf("%w: %s: %s", ErrActionFailed, r.Action, msg)
	}
	next := prior
	switch r.Action {
	case ActionLoad:
		next.IsLoaded = true
		next.ReplayActive = true
		if r.TotalTime.OK {
			next.TotalTime = r.TotalTime.V
		}
	case ActionPlay:
		next.IsPlaying = true
	case ActionPause:
		next.IsPlaying = false
	case ActionStop:
		next.IsPlaying = false
		next.Progress = 0
		next.CurrentTime = 0
	case ActionSeek:
		if r.Progress.OK {
			next.Progress = r.Progress.V
		}
	case ActionSetSpeed:
		if r.Speed.OK {
			next.Speed = r.Speed.V
		}
	}
	return next, nil
}
