package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockstock/trivia-engine/internal/services"
)

func newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record user feedback on a served round",
		Long:  "Saves a 1-5 star rating and/or a category for a round the user has seen. Later feedback overwrites earlier feedback.",
		RunE:  runFeedback,
	}
	cmd.Flags().StringP("user", "u", "", "User identifier (required)")
	cmd.Flags().StringP("round", "r", "", "Round identifier (required)")
	cmd.Flags().Int("rating", 0, "Star rating 1-5")
	cmd.Flags().String("category", "", "Category: "+categoryList())
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("round")
	return cmd
}

func runFeedback(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")
	roundID, _ := cmd.Flags().GetString("round")

	var rating *int
	if cmd.Flags().Changed("rating") {
		v, _ := cmd.Flags().GetInt("rating")
		rating = &v
	}
	var category *string
	if cmd.Flags().Changed("category") {
		v, _ := cmd.Flags().GetString("category")
		category = &v
	}
	if rating == nil && category == nil {
		return errors.New("provide --rating and/or --category")
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	svc := &services.SelectorService{DB: a.db}
	if err := svc.Feedback(ctx, userID, roundID, rating, category); err != nil {
		return err
	}

	fmt.Printf("Feedback saved for round %s\n", roundID)
	return nil
}

func categoryList() string {
	cats := make([]string, 0, len(services.FeedbackCategories))
	for c := range services.FeedbackCategories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return strings.Join(cats, ", ")
}
