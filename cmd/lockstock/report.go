package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockstock/trivia-engine/internal/services"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Recompute quality state and print the pool report",
		Long:  "Folds accumulated feedback into fact ratings, quarantines facts meeting the removal thresholds, and prints pool totals with the worst-rated facts.",
		RunE:  runReport,
	}
	cmd.Flags().Int("worst", 10, "How many worst-rated facts to list")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	worst, _ := cmd.Flags().GetInt("worst")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	svc := &services.QualityService{
		DB:            a.db,
		MinSamples:    a.cfg.Quality.MinSamples,
		MaxAllowedAvg: a.cfg.Quality.MaxAllowedAvg,
	}

	res, err := svc.Recompute(ctx)
	if err != nil {
		return fmt.Errorf("recomputing quality: %w", err)
	}
	rep, err := svc.Summary(ctx, worst)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	fmt.Printf("Facts:    %d total, %d quarantined (%d new this pass)\n",
		rep.TotalFacts, rep.QuarantinedFacts, len(res.Quarantined))
	fmt.Printf("Rounds:   %d total, %d verified\n", rep.TotalRounds, rep.VerifiedRounds)
	if rep.AvgRating != nil {
		fmt.Printf("Avg rating: %.2f\n", *rep.AvgRating)
	} else {
		fmt.Println("Avg rating: n/a (no rated facts)")
	}

	if len(rep.WorstFacts) > 0 {
		fmt.Println("Worst facts:")
		for _, f := range rep.WorstFacts {
			fmt.Printf("  %.2f  [%s/%d]  %s\n", *f.Rating, f.Domain, f.Number, f.Text)
		}
	}
	return nil
}
