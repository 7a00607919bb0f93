package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lockstock/trivia-engine/internal/services"
)

func newPickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Select the next round for a user",
		Long:  "Picks a round the user has not seen, excluding quarantined content, and prints it as JSON. By default the pick is marked as seen; pass --peek to inspect without burning the number.",
		RunE:  runPick,
	}
	cmd.Flags().StringP("user", "u", "", "User identifier (required)")
	cmd.Flags().Bool("peek", false, "Do not mark the round as seen")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runPick(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")
	peek, _ := cmd.Flags().GetBool("peek")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	svc := &services.SelectorService{
		DB:             a.db,
		VerifiedOnly:   a.cfg.Selection.VerifiedOnly,
		DomainRotation: a.cfg.Selection.DomainRotation,
	}

	bundle, err := svc.SelectNext(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrNoContent) {
			return fmt.Errorf("no unseen rounds left for user %s", userID)
		}
		return err
	}
	if !peek {
		if err := svc.MarkSeen(ctx, userID, bundle); err != nil {
			return fmt.Errorf("marking round seen: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}
