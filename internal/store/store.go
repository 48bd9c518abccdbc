// Package store defines the optional long-term webhook archive. The relay's
// in-memory store stays authoritative for what browsers see; the archive is
// write-mostly and is never read back into the relay.
package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// ErrArchiveDisabled is returned by Disabled.ListWebhooks.
var ErrArchiveDisabled = errors.New("webhook archive is not configured")

// DefaultListLimit and MaxListLimit bound ListWebhooks.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// WebhookFilter narrows ListWebhooks. Zero values match everything.
type WebhookFilter struct {
	Type   string
	Code   string
	ItemID string
	Limit  int
}

// Normalize clamps Limit into [1, MaxListLimit], defaulting to DefaultListLimit.
func (f WebhookFilter) Normalize() WebhookFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	return f
}

// Archive persists every ingested webhook.
type Archive interface {
	RecordWebhook(ctx context.Context, ev *webhook.Event) error
	// ListWebhooks returns archived events, most-recent-first.
	ListWebhooks(ctx context.Context, filter WebhookFilter) ([]webhook.Event, error)
	Close() error
}

// Disabled is the Archive used when no database is configured.
type Disabled struct{}

var _ Archive = Disabled{}

func (Disabled) RecordWebhook(context.Context, *webhook.Event) error { return nil }

func (Disabled) ListWebhooks(context.Context, WebhookFilter) ([]webhook.Event, error) {
	return nil, ErrArchiveDisabled
}

func (Disabled) Close() error { return nil }
