package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Post a test webhook to the relay",
	Long: `Post a vendor-style callback to the relay's ingest endpoint.

Build the payload from flags, or pass a JSON document with --payload
(use "-" for stdin). Flags override the matching payload fields.`,
	GroupID: "webhooks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payloadPath, _ := cmd.Flags().GetString("payload")

		payload := map[string]any{}
		if payloadPath != "" {
			data, err := readPayload(payloadPath)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("parsing payload: %w", err)
			}
		}
		applyFlag(cmd, payload, "type", "webhook_type")
		applyFlag(cmd, payload, "code", "webhook_code")
		applyFlag(cmd, payload, "item", "item_id")
		applyFlag(cmd, payload, "environment", "environment")

		resp, err := relayClient.SendWebhook(context.Background(), payload)
		if err != nil {
			return fmt.Errorf("sending webhook: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
		} else if resp.Error != "" {
			fmt.Printf("Received with error: %s\n", resp.Error)
		} else {
			fmt.Printf("Received: %s\n", resp.WebhookID)
		}
		if resp.Error != "" {
			return fmt.Errorf("relay rejected payload: %s", resp.Error)
		}
		return nil
	},
}

// applyFlag copies a string flag into payload[key] when it was set or when
// the payload lacks the key and the flag has a default.
func applyFlag(cmd *cobra.Command, payload map[string]any, flag, key string) {
	v, _ := cmd.Flags().GetString(flag)
	if cmd.Flags().Changed(flag) {
		payload[key] = v
		return
	}
	if _, ok := payload[key]; !ok && v != "" {
		payload[key] = v
	}
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return data, nil
}

func init() {
	sendCmd.Flags().String("type", "TRANSACTIONS", "webhook_type")
	sendCmd.Flags().String("code", "SYNC_UPDATES_AVAILABLE", "webhook_code")
	sendCmd.Flags().String("item", "", "item_id")
	sendCmd.Flags().String("environment", "sandbox", "environment field")
	sendCmd.Flags().String("payload", "", "JSON payload file, or - for stdin")
}
