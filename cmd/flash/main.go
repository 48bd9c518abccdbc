package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flash/internal/client"
	"github.com/alfredjeanlab/flash/internal/ui"
)

var (
	relayURL   string
	jsonOutput bool
	noColor    bool

	relayClient *client.HTTPClient
)

func defaultRelayURL() string {
	if s := os.Getenv("FLASH_URL"); s != "" {
		return s
	}
	return "http://localhost:3000"
}

var rootCmd = &cobra.Command{
	Use:   "flash <command>",
	Short: "Link demo server and webhook relay",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		relayClient = client.NewHTTPClient(relayURL)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if relayClient != nil {
			relayClient.Close()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&relayURL, "url", defaultRelayURL(), "relay base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "webhooks", Title: "Webhooks:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Webhooks
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(webhooksCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
