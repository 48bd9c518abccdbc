package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flash/internal/client"
	"github.com/alfredjeanlab/flash/internal/server"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the relay",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		grpcAddr, _ := cmd.Flags().GetString("grpc")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		status, err := relayClient.Health(ctx)
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}
		out := map[string]string{"status": status}

		grpcStatus := ""
		if grpcAddr != "" {
			grpcStatus, err = client.GRPCHealth(ctx, grpcAddr, server.HealthService)
			if err != nil {
				return fmt.Errorf("checking gRPC health: %w", err)
			}
			out["grpc"] = grpcStatus
		}

		if jsonOutput {
			printJSON(out)
		} else {
			fmt.Printf("Health: %s\n", status)
			if grpcStatus != "" {
				fmt.Printf("gRPC:   %s\n", grpcStatus)
			}
		}

		if status != "ok" {
			return fmt.Errorf("unhealthy: %s", status)
		}
		if grpcStatus != "" && grpcStatus != "SERVING" {
			return fmt.Errorf("gRPC unhealthy: %s", grpcStatus)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().String("grpc", "", "also check the gRPC health service at this address")
}
