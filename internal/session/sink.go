package session

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink persists record lines. Open is called at session start with the file
// name, Close at session stop.
type Sink interface {
	Open(name string) error
	WriteLine(line string) error
	Close() error
}

type discardSink struct{}

func (discardSink) Open(string) error      { return nil }
func (discardSink) WriteLine(string) error { return nil }
func (discardSink) Close() error           { return nil }

// Discard drops every line.
var Discard Sink = discardSink{}

// MemorySink keeps lines per session name. It is safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	current string
	files   map[string][]string
}

func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]string)}
}

func (m *MemorySink) Open(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = name
	m.files[name] = append(m.files[name], Header)
	return nil
}

func (m *MemorySink) WriteLine(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == "" {
		return ErrSinkClosed
	}
	m.files[m.current] = append(m.files[m.current], line)
	return nil
}

func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = ""
	return nil
}

// Lines returns a copy of the lines written under name, header included.
func (m *MemorySink) Lines(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.files[name]...)
}

// ErrSinkClosed is returned when writing without an open session file.
var ErrSinkClosed = errors.New("record sink not open")

// FileSink writes each session to <Dir>/<name>.
type FileSink struct {
	Dir string

	f *os.File
	w *bufio.Writer
}

func NewFileSink(dir string) *FileSink { return &FileSink{Dir: dir} }

func (s *FileSink) Open(name string) error {
	if s.f != nil {
		return fmt.Errorf("record file %s already open", s.f.Name())
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(s.Dir, filepath.Base(name)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	s.f, s.w = f, bufio.NewWriter(f)
	return s.WriteLine(Header)
}

func (s *FileSink) WriteLine(line string) error {
	if s.w == nil {
		return ErrSinkClosed
	}
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *FileSink) Close() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f, s.w = nil, nil
	return errors.Join(flushErr, closeErr)
}
