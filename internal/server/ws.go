package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

const (
	wsWriteWait = 10 * time.Second
	wsReadLimit = 4 << 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The demo UI may be served from a different origin than the API.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebhookSocket handles GET /api/webhooks-ws. It carries the same
// messages as the SSE stream, one JSON document per text message. Inbound
// messages are read only to notice the peer closing.
func (s *Server) handleWebhookSocket(w http.ResponseWriter, r *http.Request) {
	// The upgrader writes the 101 itself and ignores headers already on w.
	var header http.Header
	if id := w.Header().Get(RequestIDHeader); id != "" {
		header = http.Header{RequestIDHeader: {id}}
	}
	conn, err := wsUpgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.ticker.Start(s.rootCtx)

	q := webhook.NewQueue(s.queueSize)
	connected := s.relay.Subscribe(q)
	defer func() {
		s.relay.Unsubscribe(q)
		q.Close()
	}()

	peerGone := make(chan struct{})
	go func() {
		defer close(peerGone)
		conn.SetReadLimit(wsReadLimit)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	data, err := json.Marshal(connected)
	if err != nil {
		s.logger.Error("failed to marshal connected message", "error", err)
		return
	}
	if err := writeWS(conn, data); err != nil {
		return
	}

	for {
		select {
		case <-peerGone:
			return
		case <-r.Context().Done():
			return
		case <-q.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber too slow"),
				time.Now().Add(wsWriteWait))
			return
		case msg := <-q.C():
			if err := writeWS(conn, webhook.Unframe(msg)); err != nil {
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
