package main

import (
	"testing"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

func makeEvents(ids ...string) []webhook.Event {
	out := make([]webhook.Event, len(ids))
	for i, id := range ids {
		out[i] = webhook.Event{ID: id}
	}
	return out
}

func ids(evs []webhook.Event) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.ID
	}
	return out
}

func TestDiffWebhooks_InitialPoll(t *testing.T) {
	seen := make(map[string]bool)

	// Snapshots are most-recent-first; output is oldest-first.
	fresh := diffWebhooks(makeEvents("c", "b", "a"), seen)
	if got := ids(fresh); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("got %v, want [a b c]", got)
	}
	if len(seen) != 3 {
		t.Fatalf("got %d seen, want 3", len(seen))
	}
}

func TestDiffWebhooks_NoChanges(t *testing.T) {
	seen := map[string]bool{"a": true, "b": true}
	if fresh := diffWebhooks(makeEvents("b", "a"), seen); len(fresh) != 0 {
		t.Fatalf("got %d fresh, want 0", len(fresh))
	}
}

func TestDiffWebhooks_NewAndEvicted(t *testing.T) {
	seen := map[string]bool{"a": true, "b": true}

	fresh := diffWebhooks(makeEvents("d", "c", "b"), seen)
	if got := ids(fresh); len(got) != 2 || got[0] != "c" || got[1] != "d" {
		t.Fatalf("got %v, want [c d]", got)
	}
	if seen["a"] {
		t.Error("expected evicted id to be forgotten")
	}
	if len(seen) != 3 {
		t.Fatalf("got %d seen, want 3", len(seen))
	}
}
