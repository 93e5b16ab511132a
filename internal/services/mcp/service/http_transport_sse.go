package service

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// handleSSE is the GET /mcp read path: a Server-Sent Events stream that
// carries server-originated notifications for an established session.
// Request/response traffic never flows here; that stays on the POST
// exchange that initiated it. The stream counts as session activity so
// an idle-but-connected client is not swept.
func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, _ := t.lookupSession(r)
	if session == nil {
		http.Error(w, "Invalid or missing session ID", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	t.touchSession(session.id)

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-session.conn.closed:
			return
		case <-heartbeat.C:
			t.touchSession(session.id)
		case msg := <-session.conn.notifications:
			t.touchSession(session.id)
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("marshal SSE message: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
