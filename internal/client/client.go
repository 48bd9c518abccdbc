// Package client provides a transport-agnostic interface for the flash relay
// and an HTTP/JSON implementation used by the CLI.
package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// RelayClient is the interface the CLI commands use to talk to a running
// relay. It is implemented by HTTPClient.
type RelayClient interface {
	// SendWebhook posts a vendor-style callback to the ingest endpoint.
	SendWebhook(ctx context.Context, payload any) (*IngestResponse, error)
	// Webhooks returns the relay's current snapshot, most-recent-first.
	Webhooks(ctx context.Context) (*WebhooksResponse, error)
	// ArchivedWebhooks lists events from the server's long-term archive.
	ArchivedWebhooks(ctx context.Context, req *ArchiveRequest) ([]webhook.Event, error)
	// WebhookURL reports the publicly reachable ingest URL, if any.
	WebhookURL(ctx context.Context) (*WebhookURLResponse, error)
	// Stream follows the live feed until ctx ends or fn returns an error.
	Stream(ctx context.Context, fn func(*StreamMessage) error) error

	Health(ctx context.Context) (string, error)
	Close() error
}

// IngestResponse is the acknowledgement for a posted webhook. Error is set
// when the server could not parse the payload; the status is still 200.
type IngestResponse struct {
	Received  bool   `json:"received"`
	WebhookID string `json:"webhook_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WebhooksResponse is the snapshot returned by GET /api/webhooks.
type WebhooksResponse struct {
	Webhooks    []webhook.Event `json:"webhooks"`
	Subscribers int             `json:"subscribers"`
}

// ArchiveRequest filters ArchivedWebhooks. Zero values match everything.
type ArchiveRequest struct {
	Type   string
	Code   string
	ItemID string
	Limit  int
}

// WebhookURLResponse mirrors GET /api/webhook-url.
type WebhookURLResponse struct {
	WebhookURL  *string `json:"webhookUrl"`
	Environment string  `json:"environment"`
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
}

// StreamMessage is one message on the live feed. For connected messages
// Webhooks holds the snapshot; for webhook messages Webhook is set.
type StreamMessage struct {
	Type      string
	Webhooks  []webhook.Event
	Webhook   *webhook.Event
	Timestamp string
}

// MessageWebhook is the StreamMessage type for a relayed event.
const MessageWebhook = "webhook"

// DecodeStreamMessage parses one JSON document from the feed. Control
// messages carry a "type" field; relayed events do not.
func DecodeStreamMessage(data []byte) (*StreamMessage, error) {
	var probe struct {
		Type      string          `json:"type"`
		Webhooks  []webhook.Event `json:"webhooks"`
		Timestamp string          `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding stream message: %w", err)
	}
	if probe.Type != "" {
		return &StreamMessage{Type: probe.Type, Webhooks: probe.Webhooks, Timestamp: probe.Timestamp}, nil
	}

	var ev webhook.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decoding webhook: %w", err)
	}
	return &StreamMessage{Type: MessageWebhook, Webhook: &ev, Timestamp: ev.ReceivedAt.String()}, nil
}
