package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	query       string
	body        string
	contentType string

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(h http.Handler) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := NewHTTPClient(srv.URL + "/")
	return c, srv
}

func TestHTTPClient_SendWebhook(t *testing.T) {
	h := &testHandler{responseBody: `{"received":true,"webhook_id":"webhook_1"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.SendWebhook(context.Background(), map[string]string{
		"webhook_type": "ITEM",
		"webhook_code": "ERROR",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.method != http.MethodPost || h.path != "/api/webhook" {
		t.Fatalf("unexpected request %s %s", h.method, h.path)
	}
	if h.contentType != "application/json" {
		t.Fatalf("expected JSON content type, got %q", h.contentType)
	}
	if h.body != `{"webhook_code":"ERROR","webhook_type":"ITEM"}` {
		t.Fatalf("unexpected body %s", h.body)
	}
	if !resp.Received || resp.WebhookID != "webhook_1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHTTPClient_SendWebhook_RawBytes(t *testing.T) {
	h := &testHandler{responseBody: `{"received":true,"error":"Failed to process webhook payload"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.SendWebhook(context.Background(), []byte("not json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.body != "not json" {
		t.Fatalf("expected raw body sent as-is, got %q", h.body)
	}
	if resp.Error == "" {
		t.Fatal("expected ingest error surfaced")
	}
}

func TestHTTPClient_Webhooks(t *testing.T) {
	h := &testHandler{responseBody: `{"webhooks":[
		{"id":"webhook_2","webhook_type":"ITEM","webhook_code":"B","timestamp":"2026-01-02T03:04:05.006Z","payload":{}},
		{"id":"webhook_1","webhook_type":"ITEM","webhook_code":"A","timestamp":"2026-01-02T03:04:04.000Z","payload":{}}
	],"subscribers":2}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.Webhooks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.path != "/api/webhooks" {
		t.Fatalf("unexpected path %s", h.path)
	}
	if len(resp.Webhooks) != 2 || resp.Webhooks[0].ID != "webhook_2" || resp.Subscribers != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	want := time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC)
	if !resp.Webhooks[0].ReceivedAt.Time().Equal(want) {
		t.Fatalf("unexpected timestamp %v", resp.Webhooks[0].ReceivedAt)
	}
}

func TestHTTPClient_ArchivedWebhooks(t *testing.T) {
	h := &testHandler{responseBody: `{"webhooks":[]}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, err := c.ArchivedWebhooks(context.Background(), &ArchiveRequest{Type: "ITEM", ItemID: "item 1", Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.path != "/api/webhooks/archive" {
		t.Fatalf("unexpected path %s", h.path)
	}
	if h.query != "item_id=item+1&limit=5&type=ITEM" {
		t.Fatalf("unexpected query %q", h.query)
	}
}

func TestHTTPClient_ArchivedWebhooks_Disabled(t *testing.T) {
	h := &testHandler{statusCode: http.StatusNotFound, responseBody: `{"error":"webhook archive is not configured"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, err := c.ArchivedWebhooks(context.Background(), nil)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "webhook archive is not configured" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestHTTPClient_WebhookURL(t *testing.T) {
	h := &testHandler{responseBody: `{"webhookUrl":null,"environment":"unknown","status":"unavailable","message":"nope"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.WebhookURL(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.WebhookURL != nil || resp.Status != "unavailable" || resp.Environment != "unknown" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHTTPClient_Health(t *testing.T) {
	h := &testHandler{responseBody: `{"status":"ok"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.path != "/v1/health" || status != "ok" {
		t.Fatalf("unexpected health %q from %s", status, h.path)
	}
}

func TestHTTPClient_ErrorWithoutJSON(t *testing.T) {
	h := &testHandler{statusCode: http.StatusBadGateway, responseBody: "upstream down\n"}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, err := c.Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "upstream down" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestReadFrames(t *testing.T) {
	input := "data: {\"a\":1}\n\n" +
		": comment\n" +
		"data: {\"b\":\n" +
		"data: 2}\n\n" +
		"\n" +
		"data:{\"c\":3}\n\n"

	var got []string
	err := readFrames(strings.NewReader(input), func(data []byte) error {
		got = append(got, string(data))
		return nil
	})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
	want := []string{`{"a":1}`, "{\"b\":\n2}", `{"c":3}`}
	if len(got) != len(want) {
		t.Fatalf("got %d frames %q, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDecodeStreamMessage(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantType string
		wantID   string
		wantN    int
	}{
		{"connected", `{"type":"connected","webhooks":[{"id":"webhook_1","webhook_type":"ITEM","webhook_code":"A","timestamp":"2026-01-02T03:04:05.006Z","payload":null}],"timestamp":"2026-01-02T03:04:05.006Z"}`, "connected", "", 1},
		{"heartbeat", `{"type":"heartbeat","timestamp":"2026-01-02T03:04:05.006Z"}`, "heartbeat", "", 0},
		{"webhook", `{"id":"webhook_9","webhook_type":"ITEM","webhook_code":"A","timestamp":"2026-01-02T03:04:05.006Z","payload":{}}`, MessageWebhook, "webhook_9", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeStreamMessage([]byte(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Type != tt.wantType || len(msg.Webhooks) != tt.wantN {
				t.Fatalf("unexpected message %+v", msg)
			}
			if tt.wantID != "" && (msg.Webhook == nil || msg.Webhook.ID != tt.wantID) {
				t.Fatalf("expected webhook %s, got %+v", tt.wantID, msg.Webhook)
			}
			if msg.Timestamp != "2026-01-02T03:04:05.006Z" {
				t.Fatalf("unexpected timestamp %q", msg.Timestamp)
			}
		})
	}

	if _, err := DecodeStreamMessage([]byte("nope")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
