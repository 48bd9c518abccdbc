// Package events mirrors relay activity onto a message bus so processes other
// than the browser listener can observe inbound webhooks.
package events

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// Subject layout: flash.webhook.<type>.<code>, lower-cased.
const (
	TopicPrefix      = "flash.webhook"
	TopicAllWebhooks = TopicPrefix + ".>"
)

// WebhookTopic returns the subject an event with the given type and code is
// published on. Dots and spaces inside the values are replaced so each value
// stays a single subject token.
func WebhookTopic(webhookType, webhookCode string) string {
	return TopicPrefix + "." + token(webhookType) + "." + token(webhookCode)
}

func token(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return strings.ToLower(webhook.Unknown)
	}
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s)
}

// WebhookReceived is the message body published for every ingested webhook.
type WebhookReceived struct {
	Webhook webhook.Event `json:"webhook"`
}

// DecodeWebhookReceived parses a message published by PublishWebhook.
func DecodeWebhookReceived(data []byte) (*WebhookReceived, error) {
	var msg WebhookReceived
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// PublishWebhook publishes ev on its WebhookTopic.
func PublishWebhook(ctx context.Context, p Publisher, ev webhook.Event) error {
	return p.Publish(ctx, WebhookTopic(ev.Type, ev.Code), WebhookReceived{Webhook: ev})
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
