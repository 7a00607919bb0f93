// Package quality holds the pure decision rules of the quality tracker and
// the selector's domain-rotation constraint. The rules operate on in-memory
// snapshots assembled by the service layer; the store contributes only
// read/write primitives, which keeps every threshold independently testable
// without a database.
package quality

import "github.com/lockstock/trivia-engine/internal/domain"

// Default thresholds for quarantining low-quality facts.
const (
	DefaultMinSamples    = 3
	DefaultMaxAllowedAvg = 2.5

	// controversialLimit is how many "controversial" flags quarantine a fact
	// regardless of its average rating.
	controversialLimit = 2
)

// CategoryControversial is the feedback category counted toward the
// controversial-flag quarantine rule.
const CategoryControversial = "controversial"

// FactSample is the per-fact feedback snapshot the rules operate on.
type FactSample struct {
	Ratings       []int // all non-null ratings across every round with this fact
	Controversial int   // number of "controversial" category flags
}

// Average returns the arithmetic mean of ratings, or nil when there are none.
func Average(ratings []int) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg
}

// ShouldQuarantine decides whether a fact leaves circulation: it needs at
// least minSamples ratings, and then either an average at or below
// maxAllowedAvg or two or more controversial flags. Facts below the sample
// floor are never quarantined, however bad their average looks.
func ShouldQuarantine(s FactSample, minSamples int, maxAllowedAvg float64) bool {
	if len(s.Ratings) < minSamples {
		return false
	}
	if avg := Average(s.Ratings); avg != nil && *avg <= maxAllowedAvg {
		return true
	}
	return s.Controversial >= controversialLimit
}

// SharesAtMostTwoDomains reports whether the candidate bundle shares at most
// two domains with the user's recently served domain set. The selector uses
// it as a soft rotation constraint to reduce thematic repetition across
// consecutive rounds.
func SharesAtMostTwoDomains(b *domain.RoundBundle, recent map[domain.Domain]struct{}) bool {
	shared := 0
	for d := range b.DomainSet() {
		if _, ok := recent[d]; ok {
			shared++
		}
	}
	return shared <= 2
}
