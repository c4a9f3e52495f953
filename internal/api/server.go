// Package api is the station's HTTP surface: JSON queries and mutations for
// a presentation layer, the prometheus endpoint and the /debug/ routes.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/groundstation/internal/channel"
	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/station"
)

// Terminal colours for the access log.
const (
	colorReset     = "\033[0m"
	colorCyan      = "\033[36m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

type Server struct {
	st       *station.Station
	ch       *channel.Channel
	gatherer prometheus.Gatherer
	settings interface{}
}

// NewServer returns a server over st. ch enables the /debug/ channel routes
// and gatherer enables /metrics; either may be nil.
func NewServer(st *station.Station, ch *channel.Channel, gatherer prometheus.Gatherer) *Server {
	return &Server{st: st, ch: ch, gatherer: gatherer}
}

// SetSettings sets the effective process settings reported by /api/config.
func (s *Server) SetSettings(v interface{}) { s.settings = v }

// accessRecorder captures what a handler wrote for the access log.
type accessRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (a *accessRecorder) WriteHeader(code int) {
	a.status = code
	a.ResponseWriter.WriteHeader(code)
}

func (a *accessRecorder) Write(b []byte) (int, error) {
	n, err := a.ResponseWriter.Write(b)
	a.bytes += n
	return n, err
}

// Flush keeps the /debug/ SSE tail streaming through the middleware.
func (a *accessRecorder) Flush() {
	if f, ok := a.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func statusCodeColor(code int) string {
	var color string
	switch {
	case code >= 400:
		color = colorBoldRed
	case code >= 300:
		color = colorYellow
	case code >= 200:
		color = colorBoldGreen
	default:
		return strconv.Itoa(code)
	}
	return color + strconv.Itoa(code) + colorReset
}

// LoggingMiddleware writes one access line per request: status, method,
// request URI, response size and latency.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &accessRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		monitoring.Logf("[http] %s %s %s%s%s %dB %.2fms",
			statusCodeColor(rec.status), r.Method, colorCyan, r.RequestURI, colorReset,
			rec.bytes, float64(time.Since(start).Microseconds())/1e3)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.showState)
	mux.HandleFunc("/api/history", s.showHistory)
	mux.HandleFunc("/api/history/summary", s.showHistorySummary)
	mux.HandleFunc("/api/trajectory", s.handleTrajectory)
	mux.HandleFunc("/api/logs", s.handleLogs)
	mux.HandleFunc("/api/recording", s.handleRecording)
	mux.HandleFunc("/api/command", s.sendCommandHandler)
	mux.HandleFunc("/api/replay", s.showReplay)
	mux.HandleFunc("/api/replay/control", s.controlReplay)
	mux.HandleFunc("/api/replay/analysis", s.loadReplayCatalog)
	mux.HandleFunc("/api/replay/series", s.loadReplaySeries)
	mux.HandleFunc("/api/connect", s.connect)
	mux.HandleFunc("/api/disconnect", s.disconnect)
	mux.HandleFunc("/api/config", s.showConfig)

	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.ch != nil {
		s.ch.AttachAdminRoutes(mux)
	}
	s.attachAdminRoutes(mux)
	return mux
}
