package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("[station] connected to %s", "ws://gcs")
	if len(got) != 1 || got[0] != "[station] connected to ws://gcs" {
		t.Errorf("custom logger got %q", got)
	}

	SetLogger(nil)
	Logf("[station] muted")
	if len(got) != 1 {
		t.Errorf("nil logger should mute output, got %q", got)
	}
}
