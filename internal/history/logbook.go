package history

import (
	"github.com/google/uuid"

	"github.com/banshee-data/groundstation/internal/timeutil"
)

// LogCapacity bounds the user-visible log.
const LogCapacity = 500

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ParseLevel maps a wire level onto a Level. Empty or unrecognised values
// become info.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelDebug, LevelInfo, LevelWarning, LevelError:
		return Level(s)
	case "warn":
		return LevelWarning
	}
	return LevelInfo
}

// LogEntry is one line of the user-visible log.
type LogEntry struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Level     Level  `json:"level"`
	Timestamp string `json:"timestamp"`
}

// LogBook is the bounded, user-visible log stream.
type LogBook struct {
	clock   timeutil.Clock
	entries *Ring[LogEntry]
	counts  map[Level]int
}

func NewLogBook(clock timeutil.Clock) *LogBook {
	return &LogBook{
		clock:   timeutil.OrReal(clock),
		entries: NewRing[LogEntry](LogCapacity),
		counts:  make(map[Level]int),
	}
}

// Add appends a message and returns the stored entry.
func (b *LogBook) Add(level Level, message string) LogEntry {
	if level == "" {
		level = LevelInfo
	}
	e := LogEntry{
		ID:        uuid.NewString(),
		Message:   message,
		Level:     level,
		Timestamp: timeutil.ISO(b.clock.Now()),
	}
	b.entries.Push(e)
	b.counts[level]++
	return e
}

func (b *LogBook) Debug(msg string) LogEntry   { return b.Add(LevelDebug, msg) }
func (b *LogBook) Info(msg string) LogEntry    { return b.Add(LevelInfo, msg) }
func (b *LogBook) Warning(msg string) LogEntry { return b.Add(LevelWarning, msg) }
func (b *LogBook) Error(msg string) LogEntry   { return b.Add(LevelError, msg) }

// Entries returns the retained entries, oldest first.
func (b *LogBook) Entries() []LogEntry { return b.entries.Items() }

// Filter returns retained entries at the given level.
func (b *LogBook) Filter(level Level) []LogEntry {
	var out []LogEntry
	for _, e := range b.entries.Items() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (b *LogBook) Len() int { return b.entries.Len() }

// Total returns how many entries of a level were ever added.
func (b *LogBook) Total(level Level) int { return b.counts[level] }

func (b *LogBook) Clear() { b.entries.Clear() }
