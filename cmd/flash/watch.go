package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flash/internal/events"
	"github.com/alfredjeanlab/flash/internal/hooks"
	"github.com/alfredjeanlab/flash/internal/webhook"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for new webhooks on the event bus, or by polling",
	Long: `Print every new webhook as it is ingested.

With --nats (or FLASH_NATS_URL) the command subscribes to the event bus the
server mirrors webhooks to. Otherwise it polls the relay's snapshot.

Each --exec rule runs a shell command for matching webhooks, with the event
in FLASH_WEBHOOK_ID, FLASH_WEBHOOK_TYPE, FLASH_WEBHOOK_CODE,
FLASH_WEBHOOK_ITEM_ID and FLASH_WEBHOOK_PAYLOAD:

  flash watch --exec 'ITEM.ERROR=./page-oncall.sh' --exec 'TRANSACTIONS=make sync'`,
	GroupID: "webhooks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		subject, _ := cmd.Flags().GetString("subject")
		interval, _ := cmd.Flags().GetDuration("interval")
		execRules, _ := cmd.Flags().GetStringArray("exec")

		var rules []hooks.Rule
		for _, s := range execRules {
			r, err := hooks.ParseRule(s)
			if err != nil {
				return err
			}
			rules = append(rules, r)
		}
		w := &watcher{
			hooks: hooks.NewHandler(rules, slog.New(slog.NewTextHandler(os.Stderr, nil))),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if natsURL != "" {
			return w.watchNATS(ctx, natsURL, subject)
		}
		return w.watchPoll(ctx, interval)
	},
}

// watcher prints each new webhook and runs its hooks.
type watcher struct {
	hooks *hooks.Handler
}

func (w *watcher) emit(ctx context.Context, ev webhook.Event) {
	printWebhookLine(ev)
	w.hooks.Handle(ctx, ev)
}

// watchNATS prints every webhook published on subject.
func (w *watcher) watchNATS(ctx context.Context, natsURL, subject string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	return events.WatchWebhooks(ctx, sub, subject, func(ev webhook.Event) {
		w.emit(ctx, ev)
	})
}

// watchPoll polls the relay snapshot at the given interval. The first poll
// prints what is already stored.
func (w *watcher) watchPoll(ctx context.Context, interval time.Duration) error {
	seen := make(map[string]bool)
	for {
		resp, err := relayClient.Webhooks(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("polling webhooks: %w", err)
		}
		for _, ev := range diffWebhooks(resp.Webhooks, seen) {
			w.emit(ctx, ev)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// diffWebhooks returns events not yet in seen, oldest first, and records
// them. Events that aged out of the snapshot are forgotten so seen stays
// bounded by the store size.
func diffWebhooks(snapshot []webhook.Event, seen map[string]bool) []webhook.Event {
	var fresh []webhook.Event
	current := make(map[string]bool, len(snapshot))
	for _, ev := range snapshot {
		current[ev.ID] = true
		if !seen[ev.ID] {
			fresh = append(fresh, ev)
		}
	}
	for id := range seen {
		if !current[id] {
			delete(seen, id)
		}
	}
	for id := range current {
		seen[id] = true
	}
	slices.Reverse(fresh)
	return fresh
}

func init() {
	watchCmd.Flags().String("nats", os.Getenv("FLASH_NATS_URL"), "NATS URL to subscribe to")
	watchCmd.Flags().String("subject", events.TopicAllWebhooks, "NATS subject (e.g. flash.webhook.item.>)")
	watchCmd.Flags().Duration("interval", 2*time.Second, "polling interval without NATS")
	watchCmd.Flags().StringArray("exec", nil, "run a command for matching webhooks: TYPE[.CODE]=command (repeatable)")
}
