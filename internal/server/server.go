// Package server exposes the webhook relay and the vendor proxy routes over
// HTTP, with an optional gRPC health endpoint.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/flash/internal/config"
	"github.com/alfredjeanlab/flash/internal/events"
	"github.com/alfredjeanlab/flash/internal/plaid"
	"github.com/alfredjeanlab/flash/internal/store"
	"github.com/alfredjeanlab/flash/internal/webhook"
)

// Server owns the HTTP boundary. The relay and heartbeat ticker are built by
// the caller and injected, so tests can run isolated instances.
type Server struct {
	cfg       *config.Config
	relay     *webhook.Relay
	ticker    *webhook.Ticker
	publisher events.Publisher
	archive   store.Archive
	plaid     *plaid.Client
	logger    *slog.Logger

	// rootCtx scopes the heartbeat ticker when a subscription starts it.
	rootCtx   context.Context
	queueSize int
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithPublisher mirrors every ingested webhook to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithArchive records every ingested webhook in a.
func WithArchive(a store.Archive) Option {
	return func(s *Server) { s.archive = a }
}

// WithPlaidClient overrides the vendor client built from the config.
func WithPlaidClient(c *plaid.Client) Option {
	return func(s *Server) { s.plaid = c }
}

// WithTicker sets the heartbeat ticker that subscriptions make sure is running.
func WithTicker(t *webhook.Ticker) Option {
	return func(s *Server) { s.ticker = t }
}

// WithRootContext sets the process context the ticker runs under.
func WithRootContext(ctx context.Context) Option {
	return func(s *Server) { s.rootCtx = ctx }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithQueueSize sets the per-subscriber buffer.
func WithQueueSize(n int) Option {
	return func(s *Server) { s.queueSize = n }
}

func New(cfg *config.Config, relay *webhook.Relay, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		relay:     relay,
		publisher: &events.NoopPublisher{},
		archive:   store.Disabled{},
		logger:    slog.Default(),
		rootCtx:   context.Background(),
		queueSize: webhook.DefaultQueueSize,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.plaid == nil {
		s.plaid = plaid.NewClient(cfg.VendorBaseURL())
	}
	if s.ticker == nil {
		s.ticker = webhook.NewTicker(relay, cfg.HeartbeatInterval)
	}
	return s
}

// Relay returns the relay the server fronts.
func (s *Server) Relay() *webhook.Relay { return s.relay }

// mirror copies ev to the event bus and the archive. Both are best-effort:
// failures are logged and never affect the ingest response.
func (s *Server) mirror(ctx context.Context, ev webhook.Event) {
	if err := events.PublishWebhook(ctx, s.publisher, ev); err != nil {
		s.logger.Warn("failed to publish webhook", "webhook_id", ev.ID, "error", err)
	}
	if err := s.archive.RecordWebhook(ctx, &ev); err != nil {
		s.logger.Warn("failed to archive webhook", "webhook_id", ev.ID, "error", err)
	}
}

// inputError indicates invalid user input.
// Transport layers map this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
