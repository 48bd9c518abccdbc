package webhook

import "sync"

// Channel is one subscriber's output. A Push that returns an error means the
// subscriber is gone; the relay prunes it.
type Channel interface {
	Push(msg []byte) error
}

// Registry tracks the currently connected channels. It only holds membership
// and never closes the underlying transport.
type Registry struct {
	mu       sync.RWMutex
	channels map[Channel]struct{}
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[Channel]struct{})}
}

// Register adds ch. Registering a present channel is a no-op.
func (r *Registry) Register(ch Channel) {
	r.mu.Lock()
	r.channels[ch] = struct{}{}
	r.mu.Unlock()
}

// Unregister removes ch. Removing an absent channel is a no-op.
func (r *Registry) Unregister(ch Channel) {
	r.mu.Lock()
	delete(r.channels, ch)
	r.mu.Unlock()
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// ForEach calls fn for every channel registered at the time of the call.
// fn runs outside the lock, so it may Register or Unregister.
func (r *Registry) ForEach(fn func(Channel)) {
	r.mu.RLock()
	snapshot := make([]Channel, 0, len(r.channels))
	for ch := range r.channels {
		snapshot = append(snapshot, ch)
	}
	r.mu.RUnlock()
	for _, ch := range snapshot {
		fn(ch)
	}
}
