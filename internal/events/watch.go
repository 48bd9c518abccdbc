package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// WatchWebhooks subscribes to subject and calls fn for every mirrored webhook
// in arrival order. Malformed messages are logged and skipped. It blocks until
// ctx is cancelled or the subscription channel closes.
func WatchWebhooks(ctx context.Context, sub Subscriber, subject string, fn func(webhook.Event)) error {
	ch, cancel, err := sub.Subscribe(subject)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := DecodeWebhookReceived(data)
			if err != nil {
				slog.Warn("events: skipping malformed webhook message", "subject", subject, "error", err)
				continue
			}
			fn(msg.Webhook)
		}
	}
}
