package webhook

import (
	"errors"
	"testing"
)

func TestQueue_PushAndDrain(t *testing.T) {
	q := NewQueue(2)
	if err := q.Push([]byte("a")); err != nil {
		t.Fatalf("push a: %v", err)
	}
	if err := q.Push([]byte("b")); err != nil {
		t.Fatalf("push b: %v", err)
	}
	for _, want := range []string{"a", "b"} {
		if got := string(<-q.C()); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestQueue_FullClosesQueue(t *testing.T) {
	q := NewQueue(1)
	if err := q.Push([]byte("a")); err != nil {
		t.Fatalf("push a: %v", err)
	}
	if err := q.Push([]byte("b")); !errors.Is(err, ErrChannelFull) {
		t.Fatalf("expected ErrChannelFull, got %v", err)
	}
	select {
	case <-q.Done():
	default:
		t.Fatal("expected queue closed after overflow")
	}
	if err := q.Push([]byte("c")); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
}

func TestQueue_CloseIdempotent(t *testing.T) {
	q := NewQueue(0)
	q.Close()
	q.Close()
	if err := q.Push([]byte("x")); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
}

func TestQueue_SlowConsumerPrunedByRelay(t *testing.T) {
	r := newTestRelay()
	q := NewQueue(2)
	r.Subscribe(q)

	for i := 0; i < 3; i++ {
		r.Ingest([]byte(`{}`))
	}
	if r.Subscribers() != 0 {
		t.Fatalf("expected overflowing queue pruned, got %d subscribers", r.Subscribers())
	}
	select {
	case <-q.Done():
	default:
		t.Fatal("expected queue closed")
	}
}
