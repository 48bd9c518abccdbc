package server

import (
	"encoding/json"
	"net/http"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// handleWebhookStream handles GET /api/webhooks-stream (SSE endpoint). The
// first frame is the connected snapshot; after that every ingested webhook
// and heartbeat is forwarded until the client goes away or falls behind.
func (s *Server) handleWebhookStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	s.ticker.Start(s.rootCtx)

	q := webhook.NewQueue(s.queueSize)
	connected := s.relay.Subscribe(q)
	defer func() {
		s.relay.Unsubscribe(q)
		q.Close()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)

	data, err := json.Marshal(connected)
	if err != nil {
		s.logger.Error("failed to marshal connected message", "error", err)
		return
	}
	if _, err := w.Write(webhook.Frame(data)); err != nil {
		return
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.Done():
			s.logger.Info("closing slow webhook stream", "remote", r.RemoteAddr)
			return
		case msg := <-q.C():
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
