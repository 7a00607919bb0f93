package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockstock/trivia-engine/internal/services"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <pack.json>",
		Short: "Ingest a content pack into the store",
		Long:  "Validates every round bundle in the pack and persists facts and rounds. A single invalid entry rejects the whole pack.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeed,
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	svc := &services.IngestService{DB: a.db}
	n, err := svc.IngestPack(ctx, args[0])
	if err != nil {
		return fmt.Errorf("seeding pack: %w", err)
	}

	fmt.Printf("Ingested %d rounds from %s\n", n, args[0])
	return nil
}
