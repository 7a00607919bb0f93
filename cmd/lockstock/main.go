// Package main provides the lockstock CLI, the operator surface of the
// trivia content engine: seeding packs, generating rounds, verifying facts,
// serving picks, recording feedback, and reporting pool quality.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "lockstock",
		Short:   "Content lifecycle engine for numeric trivia rounds",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (overrides DB_PATH)")

	rootCmd.AddCommand(
		newSeedCmd(),
		newGenerateCmd(),
		newVerifyCmd(),
		newPickCmd(),
		newFeedbackCmd(),
		newReportCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
