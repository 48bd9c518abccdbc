package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

// StreamSocket follows the live feed over the WebSocket endpoint. Messages
// are the same as Stream's; it returns nil when ctx is cancelled.
func (c *HTTPClient) StreamSocket(ctx context.Context, fn func(*StreamMessage) error) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/webhooks-ws"
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dialing %s: HTTP %d: %w", wsURL, resp.StatusCode, err)
		}
		return fmt.Errorf("dialing %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseTryAgainLater {
				return fmt.Errorf("server dropped the subscription: %s", closeErr.Text)
			}
			return fmt.Errorf("reading socket: %w", err)
		}
		msg, err := DecodeStreamMessage(data)
		if err != nil {
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
