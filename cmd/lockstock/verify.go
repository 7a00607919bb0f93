package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockstock/trivia-engine/internal/services"
	"github.com/lockstock/trivia-engine/internal/verification"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [roundID]",
		Short: "Verify stored rounds against Wikipedia",
		Long:  "Checks each fact of a round against encyclopedia content. With no argument, sweeps every unverified round.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVerify,
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	vc := a.cfg.Verification
	svc := &services.VerifyService{
		DB: a.db,
		Verifier: verification.NewClient(
			verification.WithBaseURL(vc.BaseURL),
			verification.WithCallTimeout(vc.CallTimeout),
			verification.WithRetries(vc.Retries),
			verification.WithRateLimit(vc.RateRPS, vc.RateBurst),
		),
	}

	if len(args) == 1 {
		out, err := svc.VerifyRound(ctx, args[0])
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	}

	outcomes, err := svc.VerifyPending(ctx)
	if err != nil {
		return err
	}
	verified := 0
	for i := range outcomes {
		printOutcome(&outcomes[i])
		if outcomes[i].Verified {
			verified++
		}
	}
	fmt.Printf("Verified %d/%d pending rounds\n", verified, len(outcomes))
	return nil
}

func printOutcome(out *services.RoundOutcome) {
	status := "UNVERIFIED"
	if out.Verified {
		status = "VERIFIED"
	}
	fmt.Printf("%s  %s\n", out.RoundID, status)
	for _, fo := range out.Facts {
		if fo.Result.OK {
			fmt.Printf("  %s  ok\n", fo.FactID)
		} else {
			fmt.Printf("  %s  %s\n", fo.FactID, fo.Result.Reason)
		}
	}
}
