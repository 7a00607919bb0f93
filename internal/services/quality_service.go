// Package services – QualityService
//
// This file implements the QualityService, which folds accumulated user
// feedback into per-fact quality state. Recompute assembles an in-memory
// snapshot of every rated fact, rewrites the stored running averages, and
// quarantines facts that meet the removal thresholds. Quarantine is
// monotonic: the service only ever sets the flag, never clears it.
package services

import (
	"context"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rs/zerolog/log"

	"github.com/lockstock/trivia-engine/internal/domain"
	"github.com/lockstock/trivia-engine/internal/metrics"
	"github.com/lockstock/trivia-engine/internal/quality"
	"github.com/lockstock/trivia-engine/internal/repo"
)

// QualityService recomputes fact ratings and applies the quarantine rules.
type QualityService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// MinSamples is the rating count a fact needs before quarantine applies.
	// Zero means quality.DefaultMinSamples.
	MinSamples int

	// MaxAllowedAvg is the average at or below which a fact is quarantined.
	// Zero means quality.DefaultMaxAllowedAvg.
	MaxAllowedAvg float64
}

// RecomputeResult summarizes one recompute pass.
type RecomputeResult struct {
	RatedFacts  int      // facts whose stored average was rewritten
	Quarantined []string // fact ids newly quarantined in this pass
}

// Report is the operator-facing quality summary.
type Report struct {
	TotalFacts       int64
	QuarantinedFacts int64
	AvgRating        *float64 // nil until any fact has a rating
	TotalRounds      int
	VerifiedRounds   int
	WorstFacts       []domain.Fact
}

// Recompute folds every feedback row into per-fact samples, rewrites the
// stored rating averages, and quarantines facts meeting the thresholds.
// Replaying it on unchanged feedback is a no-op beyond rewriting identical
// averages.
func (s *QualityService) Recompute(ctx context.Context) (*RecomputeResult, error) {
	tr := otel.Tracer("services/QualityService")
	ctx, span := tr.Start(ctx, "Recompute")
	defer span.End()

	samples, err := s.collectSamples(ctx)
	if err != nil {
		return nil, err
	}

	res := &RecomputeResult{}
	var toQuarantine []string
	for factID, sample := range samples {
		if avg := quality.Average(sample.Ratings); avg != nil {
			if err := repo.UpdateFactRating(ctx, s.DB, factID, avg); err != nil {
				return nil, err
			}
			res.RatedFacts++
		}
		if quality.ShouldQuarantine(*sample, s.minSamples(), s.maxAllowedAvg()) {
			toQuarantine = append(toQuarantine, factID)
		}
	}

	if len(toQuarantine) > 0 {
		n, err := repo.QuarantineFacts(ctx, s.DB, toQuarantine)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			metrics.FactsQuarantined(int(n))
			log.Warn().
				Int64("facts", n).
				Msg("facts quarantined for low quality")
		}
		res.Quarantined = toQuarantine
	}

	span.SetAttributes(
		attribute.Int("quality.rated_facts", res.RatedFacts),
		attribute.Int("quality.quarantined", len(res.Quarantined)),
	)
	return res, nil
}

// collectSamples builds the per-fact feedback snapshot. Every seen row
// carries the fact id directly, so one pass over the feedback rows suffices.
func (s *QualityService) collectSamples(ctx context.Context) (map[string]*quality.FactSample, error) {
	rows, err := repo.ListFeedback(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	samples := make(map[string]*quality.FactSample)
	for _, row := range rows {
		sample, ok := samples[row.FactID]
		if !ok {
			sample = &quality.FactSample{}
			samples[row.FactID] = sample
		}
		if row.Rating != nil {
			sample.Ratings = append(sample.Ratings, *row.Rating)
		}
		if row.FeedbackCategory != nil && *row.FeedbackCategory == quality.CategoryControversial {
			sample.Controversial++
		}
	}
	return samples, nil
}

// Summary assembles the operator quality report: pool totals, round
// verification progress, and the worst-rated facts (up to worstLimit).
func (s *QualityService) Summary(ctx context.Context, worstLimit int) (*Report, error) {
	tr := otel.Tracer("services/QualityService")
	ctx, span := tr.Start(ctx, "Summary")
	defer span.End()

	total, quarantined, avg, err := repo.QualityTotals(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	rounds, err := repo.ListRounds(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	verified := 0
	for i := range rounds {
		if rounds[i].Verified {
			verified++
		}
	}

	worst, err := repo.WorstFacts(ctx, s.DB, worstLimit)
	if err != nil {
		return nil, err
	}

	return &Report{
		TotalFacts:       total,
		QuarantinedFacts: quarantined,
		AvgRating:        avg,
		TotalRounds:      len(rounds),
		VerifiedRounds:   verified,
		WorstFacts:       worst,
	}, nil
}

func (s *QualityService) minSamples() int {
	if s.MinSamples > 0 {
		return s.MinSamples
	}
	return quality.DefaultMinSamples
}

func (s *QualityService) maxAllowedAvg() float64 {
	if s.MaxAllowedAvg > 0 {
		return s.MaxAllowedAvg
	}
	return quality.DefaultMaxAllowedAvg
}
