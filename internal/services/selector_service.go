// Package services – SelectorService
//
// This file implements the SelectorService, which picks the next round for a
// user. Hard exclusions: answer numbers the user has already seen and rounds
// containing any quarantined fact. Soft constraint: optional domain rotation,
// preferring candidates that share at most two domains with the user's most
// recent rounds, relaxed when no candidate satisfies it. The final pick is
// uniform over the surviving candidates.
package services

import (
	"context"
	"errors"
	"math/rand/v2"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"

	"github.com/lockstock/trivia-engine/internal/domain"
	"github.com/lockstock/trivia-engine/internal/quality"
	"github.com/lockstock/trivia-engine/internal/repo"
)

// rotationWindow is how many of the user's most recent rounds feed the
// domain-rotation constraint.
const rotationWindow = 2

// FeedbackCategories is the fixed set of accepted feedback categories.
var FeedbackCategories = map[string]struct{}{
	"hard":          {},
	"easy":          {},
	"controversial": {},
	"niche":         {},
	"wording":       {},
	"outdated":      {},
}

// SelectorService serves rounds to users and records what they have seen.
type SelectorService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// VerifiedOnly restricts selection to externally verified rounds.
	VerifiedOnly bool

	// DomainRotation enables the soft rotation constraint.
	DomainRotation bool

	// IntN overrides the uniform pick for deterministic tests. Nil means
	// math/rand/v2.
	IntN func(n int) int
}

// SelectNext returns a round the user has not seen, or ErrNoContent when the
// eligible pool is empty. The returned round is not marked as seen; callers
// confirm delivery with MarkSeen so an undelivered pick never burns a number.
func (s *SelectorService) SelectNext(ctx context.Context, userID string) (*domain.RoundBundle, error) {
	tr := otel.Tracer("services/SelectorService")
	ctx, span := tr.Start(ctx, "SelectNext",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	seen, err := repo.SeenNumbers(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	seenSet := make(map[int]struct{}, len(seen))
	for _, n := range seen {
		seenSet[n] = struct{}{}
	}

	pool, err := repo.ListActiveRounds(ctx, s.DB, s.VerifiedOnly)
	if err != nil {
		return nil, err
	}

	candidates := pool[:0]
	for i := range pool {
		if _, ok := seenSet[pool[i].Number]; ok {
			continue
		}
		candidates = append(candidates, pool[i])
	}
	if len(candidates) == 0 {
		return nil, ErrNoContent
	}

	if s.DomainRotation {
		if preferred, err := s.applyRotation(ctx, userID, candidates); err != nil {
			return nil, err
		} else if len(preferred) > 0 {
			candidates = preferred
		}
	}

	pick := candidates[s.intN(len(candidates))]
	log.Debug().
		Str("user_id", userID).
		Str("round_id", pick.RoundID).
		Int("number", pick.Number).
		Int("pool", len(candidates)).
		Msg("round selected")
	return &pick, nil
}

// applyRotation filters candidates to those sharing at most two domains with
// the user's recent rounds. An empty result means the constraint cannot be
// satisfied; the caller falls back to the unfiltered pool.
func (s *SelectorService) applyRotation(ctx context.Context, userID string, candidates []domain.RoundBundle) ([]domain.RoundBundle, error) {
	recentIDs, err := repo.RecentRoundIDs(ctx, s.DB, userID, rotationWindow)
	if err != nil {
		return nil, err
	}
	if len(recentIDs) == 0 {
		return candidates, nil
	}

	recent := make(map[domain.Domain]struct{})
	for _, id := range recentIDs {
		b, err := repo.GetRound(ctx, s.DB, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			return nil, err
		}
		for d := range b.DomainSet() {
			recent[d] = struct{}{}
		}
	}

	var preferred []domain.RoundBundle
	for i := range candidates {
		if quality.SharesAtMostTwoDomains(&candidates[i], recent) {
			preferred = append(preferred, candidates[i])
		}
	}
	return preferred, nil
}

// MarkSeen records delivery of the round to the user. The operation is
// idempotent; replaying it changes nothing.
func (s *SelectorService) MarkSeen(ctx context.Context, userID string, b *domain.RoundBundle) error {
	tr := otel.Tracer("services/SelectorService")
	ctx, span := tr.Start(ctx, "MarkSeen",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("round.id", b.RoundID),
		),
	)
	defer span.End()

	factIDs := make([]string, 0, 3)
	for _, f := range b.Facts() {
		factIDs = append(factIDs, f.ID)
	}
	return repo.MarkSeen(ctx, s.DB, userID, b.RoundID, b.Number, factIDs)
}

// Feedback records a star rating and/or a category for a round the user has
// seen. Ratings must fall in 1..5 and categories must be members of
// FeedbackCategories. Later feedback overwrites earlier feedback in place.
func (s *SelectorService) Feedback(ctx context.Context, userID, roundID string, rating *int, category *string) error {
	tr := otel.Tracer("services/SelectorService")
	ctx, span := tr.Start(ctx, "Feedback",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("round.id", roundID),
		),
	)
	defer span.End()

	if rating != nil && (*rating < 1 || *rating > 5) {
		return ErrInvalidRating
	}
	if category != nil {
		if _, ok := FeedbackCategories[*category]; !ok {
			return ErrInvalidCategory
		}
	}

	if err := repo.SaveFeedback(ctx, s.DB, userID, roundID, rating, category); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRoundNotSeen
		}
		return err
	}
	return nil
}

func (s *SelectorService) intN(n int) int {
	if s.IntN != nil {
		return s.IntN(n)
	}
	return rand.IntN(n)
}
