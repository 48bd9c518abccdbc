package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alfredjeanlab/flash/internal/ui"
	"github.com/alfredjeanlab/flash/internal/webhook"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printWebhookTable(events []webhook.Event) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRECEIVED\tTYPE\tCODE\tITEM")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ev.ID,
			ev.ReceivedAt.String(),
			ev.Type,
			ev.Code,
			ev.ItemID,
		)
	}
	w.Flush()
}

// printWebhookLine prints one event as it arrives on a live feed.
func printWebhookLine(ev webhook.Event) {
	if jsonOutput {
		data, err := json.Marshal(ev)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}
	fmt.Println(ui.FormatWebhook(ev))
}
