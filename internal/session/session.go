// Package session implements data recording: the start/stop lifecycle, the
// fixed-column record line format and the sinks that persist lines.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/timeutil"
)

var (
	// ErrAlreadyActive is returned by Start while a session is recording.
	ErrAlreadyActive = errors.New("recording already active")
	// ErrNotActive is returned by Stop when nothing is recording.
	ErrNotActive = errors.New("recording not active")
)

// Info is the inspectable state of the current or most recent session.
type Info struct {
	Enabled        bool      `json:"enabled"`
	StartTime      time.Time `json:"startTime"`
	RecordCount    int       `json:"recordCount"`
	FilePath       string    `json:"filePath"`
	LastRecordTime time.Time `json:"lastRecordTime"`
	// Duration is whole seconds since StartTime while enabled, else 0.
	Duration int64 `json:"duration"`
}

// FileName returns the record file name for a session started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("drone_log_%s.csv", timeutil.FileStamp(t))
}

// Recorder tracks one recording session at a time. It is not safe for
// concurrent use.
type Recorder struct {
	clock timeutil.Clock
	sink  Sink

	enabled        bool
	startTime      time.Time
	recordCount    int
	filePath       string
	lastRecordTime time.Time
}

// NewRecorder returns an inactive recorder. A nil sink discards lines.
func NewRecorder(clock timeutil.Clock, sink Sink) *Recorder {
	if sink == nil {
		sink = Discard
	}
	return &Recorder{clock: timeutil.OrReal(clock), sink: sink}
}

// Active reports whether a session is recording.
func (r *Recorder) Active() bool { return r.enabled }

// Start begins a new session. Starting while active leaves everything as is
// and returns ErrAlreadyActive. If the sink cannot open the file the session
// stays inactive and the previous session's info is kept.
func (r *Recorder) Start() (Info, error) {
	if r.enabled {
		return r.Info(), ErrAlreadyActive
	}
	now := r.clock.Now()
	name := FileName(now)
	if err := r.sink.Open(name); err != nil {
		return r.Info(), fmt.Errorf("open record sink %s: %w", name, err)
	}
	r.enabled = true
	r.startTime = now
	r.recordCount = 0
	r.lastRecordTime = now
	r.filePath = name
	return r.Info(), nil
}

// Stop ends the session. The count and file path stay for inspection. The
// returned Info carries the elapsed duration of the stopped session.
func (r *Recorder) Stop() (Info, error) {
	if !r.enabled {
		return r.Info(), ErrNotActive
	}
	info := r.Info()
	r.enabled = false
	if err := r.sink.Close(); err != nil {
		return info, fmt.Errorf("close record sink %s: %w", r.filePath, err)
	}
	info.Enabled = false
	return info, nil
}

// Record stores one line when a session is active and reports whether it
// did. fields is the category-specific column text without a leading comma.
func (r *Recorder) Record(category Category, fields string) (string, bool) {
	if !r.enabled {
		return "", false
	}
	now := r.clock.Now()
	r.recordCount++
	r.lastRecordTime = now
	line := FormatLine(now, category, fields)
	if err := r.sink.WriteLine(line); err != nil {
		monitoring.Logf("[session] write %s: %v", r.filePath, err)
	}
	return line, true
}

// Info returns the session snapshot.
func (r *Recorder) Info() Info {
	info := Info{
		Enabled:        r.enabled,
		StartTime:      r.startTime,
		RecordCount:    r.recordCount,
		FilePath:       r.filePath,
		LastRecordTime: r.lastRecordTime,
	}
	if r.enabled {
		info.Duration = timeutil.WholeSeconds(r.clock.Since(r.startTime))
	}
	return info
}
