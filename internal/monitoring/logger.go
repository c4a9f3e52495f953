// Package monitoring holds the station's diagnostic logger and its
// prometheus collectors.
package monitoring

import "log"

// Logf receives every diagnostic line. Lines carry a bracketed subsystem
// prefix such as "[station]" or "[channel]". It is separate from the
// user-visible log book the station keeps.
var Logf = log.Printf

// SetLogger routes diagnostics to f. A nil f discards them, which is what
// package tests do in TestMain.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	Logf = f
}
