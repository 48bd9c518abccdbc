package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flash/internal/client"
	"github.com/alfredjeanlab/flash/internal/ui"
	"github.com/alfredjeanlab/flash/internal/webhook"
)

var streamCmd = &cobra.Command{
	Use:     "stream",
	Short:   "Follow the relay's live webhook feed",
	GroupID: "webhooks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		useWS, _ := cmd.Flags().GetBool("ws")
		showHeartbeats, _ := cmd.Flags().GetBool("heartbeats")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		handle := streamPrinter(showHeartbeats)
		var err error
		if useWS {
			err = relayClient.StreamSocket(ctx, handle)
		} else {
			err = relayClient.Stream(ctx, handle)
		}
		if err != nil {
			return fmt.Errorf("stream ended: %w", err)
		}
		return nil
	},
}

// streamPrinter prints the connected snapshot oldest-first so the newest
// event ends up at the bottom, then every live event as it arrives.
func streamPrinter(showHeartbeats bool) func(*client.StreamMessage) error {
	return func(msg *client.StreamMessage) error {
		switch msg.Type {
		case webhook.MessageConnected:
			fmt.Fprintln(os.Stderr, ui.RenderMuted(fmt.Sprintf("connected, %d stored webhooks", len(msg.Webhooks))))
			for i := len(msg.Webhooks) - 1; i >= 0; i-- {
				printWebhookLine(msg.Webhooks[i])
			}
		case webhook.MessageHeartbeat:
			if showHeartbeats {
				fmt.Fprintln(os.Stderr, ui.RenderMuted("heartbeat "+msg.Timestamp))
			}
		case client.MessageWebhook:
			printWebhookLine(*msg.Webhook)
		}
		return nil
	}
}

func init() {
	streamCmd.Flags().Bool("ws", false, "use the WebSocket endpoint instead of SSE")
	streamCmd.Flags().Bool("heartbeats", false, "show heartbeat messages")
}
