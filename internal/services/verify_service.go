// Package services – VerifyService
//
// This file implements the VerifyService, which runs stored rounds through
// external verification. A round is marked verified only when all three of
// its facts pass the encyclopedia lookup; a negative outcome on any fact
// leaves the round unverified so a later pass can retry it. Verification is
// advisory by default: unverified rounds remain selectable unless the
// selector is configured strict.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"

	"github.com/lockstock/trivia-engine/internal/metrics"
	"github.com/lockstock/trivia-engine/internal/repo"
	"github.com/lockstock/trivia-engine/internal/verification"
)

// FactVerifier is the external-lookup contract required by VerifyService.
// *verification.Client satisfies it.
type FactVerifier interface {
	Verify(ctx context.Context, claim string, sourceURL *string) verification.Result
}

// FactOutcome is the verification result for one constituent fact.
type FactOutcome struct {
	FactID string
	Result verification.Result
}

// RoundOutcome aggregates the per-fact results of verifying one round.
type RoundOutcome struct {
	RoundID  string
	Verified bool
	Facts    []FactOutcome
}

// VerifyService checks stored rounds against an external verifier and
// persists the verified flag.
type VerifyService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Verifier performs the per-fact external lookups.
	Verifier FactVerifier
}

// VerifyRound verifies every fact of the round and, when all three pass,
// marks the round verified. Facts are checked sequentially and the loop
// continues past failures so the outcome reports all three results. Returns
// ErrRoundNotFound when the round id is unknown.
func (s *VerifyService) VerifyRound(ctx context.Context, roundID string) (*RoundOutcome, error) {
	tr := otel.Tracer("services/VerifyService")
	ctx, span := tr.Start(ctx, "VerifyRound",
		trace.WithAttributes(attribute.String("round.id", roundID)),
	)
	defer span.End()

	b, err := repo.GetRound(ctx, s.DB, roundID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}

	out := &RoundOutcome{RoundID: roundID, Verified: true}
	for _, f := range b.Facts() {
		res := s.Verifier.Verify(ctx, f.Text, f.SourceURL)
		metrics.VerificationLookup(outcomeLabel(res))
		out.Facts = append(out.Facts, FactOutcome{FactID: f.ID, Result: res})
		if !res.OK {
			out.Verified = false
			log.Debug().
				Str("round_id", roundID).
				Str("fact_id", f.ID).
				Str("reason", res.Reason).
				Msg("fact failed verification")
		}
	}

	if out.Verified {
		if err := repo.MarkRoundVerified(ctx, s.DB, roundID); err != nil {
			return nil, err
		}
		log.Info().Str("round_id", roundID).Msg("round verified")
	}
	return out, nil
}

// VerifyPending runs VerifyRound over every unverified round and returns the
// outcomes. Individual verification failures do not stop the sweep; a
// storage error does.
func (s *VerifyService) VerifyPending(ctx context.Context) ([]RoundOutcome, error) {
	tr := otel.Tracer("services/VerifyService")
	ctx, span := tr.Start(ctx, "VerifyPending")
	defer span.End()

	ids, err := repo.ListUnverifiedRoundIDs(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	outcomes := make([]RoundOutcome, 0, len(ids))
	for _, id := range ids {
		out, err := s.VerifyRound(ctx, id)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, *out)
	}
	return outcomes, nil
}

// outcomeLabel maps a verification result to its metrics label.
func outcomeLabel(r verification.Result) string {
	if r.OK {
		return "ok"
	}
	return r.Reason
}
