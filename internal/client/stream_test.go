package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alfredjeanlab/flash/internal/config"
	"github.com/alfredjeanlab/flash/internal/server"
	"github.com/alfredjeanlab/flash/internal/webhook"
)

var errStop = errors.New("stop")

func newRelayServer(t *testing.T) (*server.Server, *HTTPClient) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{HeartbeatInterval: time.Hour, PlaidEnv: "sandbox"}
	srv := server.New(cfg, webhook.NewRelay(), server.WithRootContext(ctx))
	ts := httptest.NewServer(srv.NewHTTPHandler())
	t.Cleanup(ts.Close)
	return srv, NewHTTPClient(ts.URL)
}

// collect follows the feed with follow until n messages arrive, posting
// sends once the connected snapshot is seen.
func collect(t *testing.T, c *HTTPClient, follow func(context.Context, func(*StreamMessage) error) error, n int, sends ...string) []*StreamMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []*StreamMessage
	err := follow(ctx, func(msg *StreamMessage) error {
		got = append(got, msg)
		if msg.Type == webhook.MessageConnected {
			for _, body := range sends {
				if _, err := c.SendWebhook(ctx, []byte(body)); err != nil {
					return err
				}
			}
		}
		if len(got) == n {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("stream ended early: %v (got %d messages)", err, len(got))
	}
	return got
}

func TestHTTPClient_Stream(t *testing.T) {
	_, c := newRelayServer(t)
	if _, err := c.SendWebhook(context.Background(), []byte(`{"webhook_type":"ITEM","webhook_code":"A"}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got := collect(t, c, c.Stream, 2, `{"webhook_type":"ITEM","webhook_code":"B"}`)
	if got[0].Type != webhook.MessageConnected || len(got[0].Webhooks) != 1 || got[0].Webhooks[0].Code != "A" {
		t.Fatalf("unexpected connected message %+v", got[0])
	}
	if got[1].Type != MessageWebhook || got[1].Webhook.Code != "B" {
		t.Fatalf("unexpected live message %+v", got[1])
	}
}

func TestHTTPClient_StreamSocket(t *testing.T) {
	_, c := newRelayServer(t)

	got := collect(t, c, c.StreamSocket, 2, `{"webhook_type":"AUTH","webhook_code":"VERIFICATION_EXPIRED"}`)
	if got[0].Type != webhook.MessageConnected || len(got[0].Webhooks) != 0 {
		t.Fatalf("unexpected connected message %+v", got[0])
	}
	if got[1].Webhook == nil || got[1].Webhook.Code != "VERIFICATION_EXPIRED" {
		t.Fatalf("unexpected live message %+v", got[1])
	}
}

func TestHTTPClient_Stream_CancelReturnsNil(t *testing.T) {
	_, c := newRelayServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Stream(ctx, func(msg *StreamMessage) error {
		if msg.Type == webhook.MessageConnected {
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil after cancel, got %v", err)
	}
}

func TestHTTPClient_Stream_Non200(t *testing.T) {
	h := &testHandler{statusCode: http.StatusServiceUnavailable, responseBody: `{"error":"draining"}`}
	c, ts := newTestClient(h)
	defer ts.Close()

	err := c.Stream(context.Background(), func(*StreamMessage) error { return nil })
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable || apiErr.Message != "draining" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGRPCHealth(t *testing.T) {
	srv, _ := server.NewGRPCServer()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := GRPCHealth(ctx, lis.Addr().String(), server.HealthService)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "SERVING" {
		t.Fatalf("status = %q, want SERVING", status)
	}
}
