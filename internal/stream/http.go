package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// SSEHandler streams light frames to browsers as Server-Sent Events.
type SSEHandler struct {
	broadcaster *Broadcaster
}

// NewSSEHandler creates an event stream handler.
func NewSSEHandler(b *Broadcaster) *SSEHandler {
	return &SSEHandler{broadcaster: b}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log.Printf("SSE listener connected (total: %d)", h.broadcaster.ListenerCount())
	defer log.Printf("SSE listener disconnected")

	for {
		select {
		case <-r.Context().Done():
			return
		case f, ok := <-listener.C:
			if !ok {
				return
			}
			if len(f.Events) == 0 {
				continue
			}
			data, err := json.Marshal(f)
			if err != nil {
				log.Printf("SSE: encode frame: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: frame\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
