package webhook

import (
	"context"
	"sync"
	"time"
)

// DefaultHeartbeatInterval is how often liveness pings go out.
const DefaultHeartbeatInterval = 30 * time.Second

// Ticker fires Relay.Heartbeat on a fixed interval. There is one per process;
// Start may be called any number of times but only the first call starts it.
// Missed ticks are dropped, never queued.
type Ticker struct {
	relay    *Relay
	interval time.Duration
	once     sync.Once
	started  chan struct{}
}

func NewTicker(r *Relay, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Ticker{relay: r, interval: interval, started: make(chan struct{})}
}

// Start launches the heartbeat loop on first call. The loop ends only when
// ctx, the process root context, is cancelled.
func (t *Ticker) Start(ctx context.Context) {
	t.once.Do(func() {
		close(t.started)
		go t.run(ctx)
	})
}

// Started reports whether Start has been called.
func (t *Ticker) Started() bool {
	select {
	case <-t.started:
		return true
	default:
		return false
	}
}

func (t *Ticker) Interval() time.Duration { return t.interval }

func (t *Ticker) run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.relay.Heartbeat()
		}
	}
}
