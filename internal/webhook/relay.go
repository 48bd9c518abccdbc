package webhook

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/flash/internal/idgen"
)

// Relay stores inbound events and pushes them to every live subscriber.
// Store and Registry are only mutated through the Relay.
type Relay struct {
	store    *Store
	registry *Registry
	logger   *slog.Logger

	// mu serialises append+broadcast so every subscriber observes events in
	// ingest order, and makes Subscribe's snapshot+register atomic.
	mu sync.Mutex

	now   func() time.Time
	newID func(time.Time) string
}

// Option configures a Relay.
type Option func(*Relay)

// WithClock overrides the clock used for receivedAt and heartbeat timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// WithIDFunc overrides event ID generation.
func WithIDFunc(fn func(time.Time) string) Option {
	return func(r *Relay) { r.newID = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// NewRelay returns a relay with its own empty Store and Registry.
func NewRelay(opts ...Option) *Relay {
	r := &Relay{
		store:    NewStore(),
		registry: NewRegistry(),
		logger:   slog.Default(),
		now:      time.Now,
		newID:    idgen.WebhookID,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Ingest builds an Event from raw, appends it to the store and broadcasts it.
// It never fails; a malformed payload is stored with UNKNOWN type/code.
func (r *Relay) Ingest(raw []byte) Event {
	ev := newEvent(raw)

	// Stamp under the lock so store order, receivedAt order and ID order agree.
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	ev.ID = r.newID(now)
	ev.ReceivedAt = Timestamp(now.UTC())
	r.store.Append(ev)
	r.logger.Info("webhook stored",
		"webhook_id", ev.ID,
		"webhook_type", ev.Type,
		"webhook_code", ev.Code,
		"total", r.store.Len(),
		"subscribers", r.registry.Count(),
	)
	r.broadcastLocked(ev)
	return ev
}

// Broadcast pushes ev to every registered channel without storing it.
func (r *Relay) Broadcast(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(ev)
}

func (r *Relay) broadcastLocked(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.logger.Warn("failed to marshal webhook for broadcast", "webhook_id", ev.ID, "error", err)
		return
	}
	r.pushAll(Frame(data))
}

// Heartbeat pushes a liveness notification to every registered channel.
// Heartbeats are never stored.
func (r *Relay) Heartbeat() {
	data, _ := json.Marshal(Heartbeat{Type: MessageHeartbeat, Timestamp: Timestamp(r.now().UTC())})
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushAll(Frame(data))
}

// pushAll delivers frame to every channel; a failed push unregisters it.
func (r *Relay) pushAll(frame []byte) {
	r.registry.ForEach(func(ch Channel) {
		if err := ch.Push(frame); err != nil {
			r.registry.Unregister(ch)
			r.logger.Info("subscriber removed after failed push", "error", err, "subscribers", r.registry.Count())
		}
	})
}

// Subscribe takes a snapshot of the store and registers ch in one step, so
// ch receives every event ingested after the snapshot exactly once.
func (r *Relay) Subscribe(ch Channel) Connected {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry.Register(ch)
	r.logger.Info("subscriber connected", "subscribers", r.registry.Count())
	return Connected{
		Type:      MessageConnected,
		Webhooks:  r.store.List(),
		Timestamp: Timestamp(r.now().UTC()),
	}
}

// Unsubscribe removes ch. Safe to call after ch was already pruned.
func (r *Relay) Unsubscribe(ch Channel) {
	r.registry.Unregister(ch)
	r.logger.Info("subscriber disconnected", "subscribers", r.registry.Count())
}

// Webhooks returns a snapshot of stored events, most-recent-first.
func (r *Relay) Webhooks() []Event { return r.store.List() }

// Subscribers returns the number of registered channels.
func (r *Relay) Subscribers() int { return r.registry.Count() }

// Clear empties the event store. Not reachable from any endpoint.
func (r *Relay) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Clear()
}
