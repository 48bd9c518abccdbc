// Package sync periodically exports the relay's current snapshot to external
// destinations (an S3 bucket, a git repository) for offline inspection.
package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic syncs to one or more destinations. A tick whose
// snapshot is unchanged since the last successful sync is skipped.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	lastHead  string
	lastCount int
	synced    bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports src to the given
// destinations at the specified interval.
func NewScheduler(src Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:       src,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic sync under ctx. It runs an initial sync immediately,
// then on each tick.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports the current snapshot and writes it to every destination.
// It reports whether a write was attempted.
func (s *Scheduler) SyncOnce(ctx context.Context) bool {
	events := s.source.Webhooks()
	head := ""
	if len(events) > 0 {
		head = events[0].ID
	}
	if s.synced && head == s.lastHead && len(events) == s.lastCount {
		s.logger.Debug("sync skipped, snapshot unchanged", "webhooks", len(events))
		return false
	}

	var buf bytes.Buffer
	if err := ExportJSONL(ctx, snapshot(events), &buf); err != nil {
		s.logger.Error("sync export failed", "error", err)
		return false
	}
	data := buf.Bytes()

	failed := 0
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			failed++
			s.logger.Error("sync destination write failed", "destination", dest.Name(), "error", err)
		}
	}
	if failed == 0 {
		s.synced, s.lastHead, s.lastCount = true, head, len(events)
	}

	s.logger.Info("sync completed",
		"destinations", len(s.destinations),
		"failed", failed,
		"webhooks", len(events),
		"bytes", len(data),
	)
	return true
}

// snapshot adapts an already-taken event slice to Source.
type snapshot []webhook.Event

func (s snapshot) Webhooks() []webhook.Event { return s }
