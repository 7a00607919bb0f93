package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lockstock/trivia-engine/internal/generation"
	"github.com/lockstock/trivia-engine/internal/services"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate new rounds with the configured LLM",
		Long:  "Requests rounds from the configured model, validates them, and ingests the survivors. Failed generations are skipped once the client exhausts its own attempts.",
		RunE:  runGenerate,
	}
	cmd.Flags().IntP("count", "n", 1, "How many rounds to generate")
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	count, _ := cmd.Flags().GetInt("count")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	client, err := generation.NewClient(a.cfg.Generation.APIKey, a.cfg.Generation.BaseURL)
	if err != nil {
		return errors.New("OPENROUTER_API_KEY is not set")
	}

	gen := &generation.Generator{
		Client: client,
		Opts: generation.Options{
			Model:         a.cfg.Generation.Model,
			FallbackModel: a.cfg.Generation.FallbackModel,
			Temperature:   float32(a.cfg.Generation.Temperature),
			MaxAttempts:   a.cfg.Generation.MaxAttempts,
			UseExamples:   a.cfg.Generation.UseExamples,
		},
		Stats: generation.NewStatsCollector(),
	}
	ingest := &services.IngestService{DB: a.db}

	ok := 0
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		bundle, err := gen.Generate(ctx)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("generation failed")
			continue
		}
		id, err := ingest.IngestBundle(ctx, bundle, services.SourceGenerated)
		if err != nil {
			return fmt.Errorf("ingesting generated round: %w", err)
		}
		ok++
		fmt.Printf("Generated round %s (answer %d)\n", id, bundle.Number)
	}

	snap := gen.Stats.Snapshot()
	fmt.Printf("Done: %d/%d rounds stored (%d generation calls recorded)\n", ok, count, snap.Total)
	return nil
}
