package channel

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"tailscale.com/tsweb"
)

var sendFrameTemplate = template.Must(template.New("send-frame").Parse(`<!doctype html>
<html>
<head><title>send frame</title></head>
<body>
<h1>{{.Transport}} channel</h1>
<p>connected: {{.Connected}}</p>
<form method="post" action="send-frame-api">
<textarea name="frame" rows="6" cols="80">{"type":"command","command":"cmd_idx","params":{"cmdId":1}}</textarea>
<br><button type="submit">send</button>
</form>
<pre id="tail"></pre>
<script>
const tail = document.getElementById("tail");
new EventSource("tail").onmessage = (e) => {
  tail.textContent = e.data + "\n" + tail.textContent.slice(0, 20000);
};
</script>
</body>
</html>
`))

// AttachAdminRoutes attaches debugging endpoints to mux under /debug/. They
// are reachable over localhost or the tailnet only.
func (c *Channel) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("send-frame", "send a raw frame to the backend", func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		data := struct {
			Transport string
			Connected bool
		}{c.transport.Name(), c.Connected()}
		if err := sendFrameTemplate.Execute(buf, data); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		io.Copy(w, buf)
	})

	debug.HandleSilentFunc("send-frame-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		frame := strings.TrimSpace(r.FormValue("frame"))
		if frame == "" {
			http.Error(w, "Missing frame", http.StatusBadRequest)
			return
		}
		if err := c.Send(r.Context(), []byte(frame)); err != nil {
			http.Error(w, fmt.Sprintf("Failed to send frame: %v", err), http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, fmt.Sprintf("Sent %d bytes over %s", len(frame), c.transport.Name()))
	})

	// Server-sent events for every frame and lifecycle change.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		sub := c.Subscribe(Lossy())
		defer sub.Unsubscribe()

		w.Write([]byte(": ping\n\n"))
		flusher.Flush()

		for {
			select {
			case ev := <-sub.Events():
				var err error
				switch ev.Kind {
				case EventMessage:
					_, err = fmt.Fprintf(w, "data: %s\n\n", ev.Data)
				case EventError:
					_, err = fmt.Fprintf(w, "event: %s\ndata: %v\n\n", ev.Kind, ev.Err)
				default:
					_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, ev.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
				}
				if err != nil {
					return
				}
				flusher.Flush()
			case <-sub.Done():
				return
			case <-r.Context().Done():
				return
			}
		}
	})
}
