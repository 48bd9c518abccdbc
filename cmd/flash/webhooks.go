package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flash/internal/client"
)

var webhooksCmd = &cobra.Command{
	Use:     "webhooks",
	Short:   "List the webhooks the relay currently holds",
	GroupID: "webhooks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := relayClient.Webhooks(context.Background())
		if err != nil {
			return fmt.Errorf("listing webhooks: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printWebhookTable(resp.Webhooks)
		fmt.Printf("\n%d webhooks, %d live subscribers\n", len(resp.Webhooks), resp.Subscribers)
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Query the long-term webhook archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.ArchiveRequest{}
		req.Type, _ = cmd.Flags().GetString("type")
		req.Code, _ = cmd.Flags().GetString("code")
		req.ItemID, _ = cmd.Flags().GetString("item")
		req.Limit, _ = cmd.Flags().GetInt("limit")

		events, err := relayClient.ArchivedWebhooks(context.Background(), req)
		if client.IsNotFound(err) {
			return fmt.Errorf("the server has no archive configured (set FLASH_DATABASE_URL)")
		}
		if err != nil {
			return fmt.Errorf("listing archive: %w", err)
		}
		if jsonOutput {
			printJSON(events)
			return nil
		}
		printWebhookTable(events)
		fmt.Printf("\n%d webhooks\n", len(events))
		return nil
	},
}

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Show the public webhook URL the server advertises",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := relayClient.WebhookURL(context.Background())
		if err != nil {
			return fmt.Errorf("fetching webhook URL: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		if resp.WebhookURL == nil {
			fmt.Printf("Unavailable (%s): %s\n", resp.Environment, resp.Message)
			return nil
		}
		fmt.Printf("%s (%s)\n", *resp.WebhookURL, resp.Environment)
		return nil
	},
}

func init() {
	archiveCmd.Flags().String("type", "", "filter by webhook_type")
	archiveCmd.Flags().String("code", "", "filter by webhook_code")
	archiveCmd.Flags().String("item", "", "filter by item_id")
	archiveCmd.Flags().Int("limit", 0, "maximum results (server default when 0)")

	webhooksCmd.AddCommand(archiveCmd)
	webhooksCmd.AddCommand(urlCmd)
}
