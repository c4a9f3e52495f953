package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"tailscale.com/tsweb"
)

// attachAdminRoutes adds station views under /debug/.
func (s *Server) attachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.Handle("station", "Station snapshot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s.st.Snapshot()); err != nil {
			http.Error(w, fmt.Sprintf("Failed to encode snapshot: %v", err), http.StatusInternalServerError)
		}
	}))

	debug.Handle("logbook", "User-visible log, oldest first", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, e := range s.st.Logs("") {
			fmt.Fprintf(w, "%s %-7s %s\n", e.Timestamp, e.Level, e.Message)
		}
	}))
}
