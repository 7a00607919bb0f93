// Package repo – round persistence.
//
// Round identity is derived from the three constituent fact ids, so
// re-ingesting the same facts is a silent no-op. Read paths reconstruct the
// full bundle (round + three facts) via preloaded associations.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lockstock/trivia-engine/internal/domain"
)

// UpsertRound persists the round derived from the bundle's (already
// resolved) fact ids and returns the deterministic round id. If a round with
// that id already exists, the call is a silent no-op.
//
// The caller is responsible for upserting the three facts first; a round is
// stored only after its facts are stored.
func UpsertRound(ctx context.Context, db *gorm.DB, b *domain.RoundBundle) (string, error) {
	id := domain.RoundID(b.Question.ID, b.Hint1.ID, b.Hint2.ID)
	r := &domain.Round{
		ID:             id,
		Number:         b.Number,
		QuestionFactID: b.Question.ID,
		Hint1FactID:    b.Hint1.ID,
		Hint2FactID:    b.Hint2.ID,
		Verified:       false,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		if isDuplicate(err) {
			b.RoundID = id
			return id, nil
		}
		return "", err
	}
	b.RoundID = id
	return id, nil
}

// GetRound fetches a round with its three facts, or ErrNotFound.
func GetRound(ctx context.Context, db *gorm.DB, id string) (*domain.RoundBundle, error) {
	var r domain.Round
	err := db.WithContext(ctx).
		Preload("Question").Preload("Hint1").Preload("Hint2").
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	b := toBundle(&r)
	return &b, nil
}

// ListRoundsByNumber returns every round for the given answer number, each
// reconstructed with its three facts.
func ListRoundsByNumber(ctx context.Context, db *gorm.DB, number int) ([]domain.RoundBundle, error) {
	var rounds []domain.Round
	err := db.WithContext(ctx).
		Preload("Question").Preload("Hint1").Preload("Hint2").
		Where("number = ?", number).
		Order("created_at asc").
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoundBundle, 0, len(rounds))
	for i := range rounds {
		out = append(out, toBundle(&rounds[i]))
	}
	return out, nil
}

// ListActiveRounds returns every round whose three facts are all free of
// quarantine, optionally restricted to verified rounds. Per-user exclusions
// (seen numbers, domain rotation) are applied by the selector service on
// this snapshot.
func ListActiveRounds(ctx context.Context, db *gorm.DB, verifiedOnly bool) ([]domain.RoundBundle, error) {
	q := db.WithContext(ctx).Model(&domain.Round{}).
		Joins("JOIN facts fq ON fq.id = rounds.question_fact_id AND fq.quarantined = ?", false).
		Joins("JOIN facts f1 ON f1.id = rounds.hint1_fact_id AND f1.quarantined = ?", false).
		Joins("JOIN facts f2 ON f2.id = rounds.hint2_fact_id AND f2.quarantined = ?", false).
		Preload("Question").Preload("Hint1").Preload("Hint2")
	if verifiedOnly {
		q = q.Where("rounds.verified = ?", true)
	}

	var rounds []domain.Round
	if err := q.Find(&rounds).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RoundBundle, 0, len(rounds))
	for i := range rounds {
		out = append(out, toBundle(&rounds[i]))
	}
	return out, nil
}

// ListRounds returns the bare round rows (no fact preloading). Used by the
// quality tracker to map feedback rows back to constituent facts.
func ListRounds(ctx context.Context, db *gorm.DB) ([]domain.Round, error) {
	var out []domain.Round
	err := db.WithContext(ctx).Find(&out).Error
	return out, err
}

// ListUnverifiedRoundIDs returns the ids of rounds not yet verified.
func ListUnverifiedRoundIDs(ctx context.Context, db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&domain.Round{}).
		Where("verified = ?", false).
		Pluck("id", &ids).Error
	return ids, err
}

// MarkRoundVerified flips the round's verified flag. Returns ErrNotFound if
// the round does not exist.
func MarkRoundVerified(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Model(&domain.Round{}).
		Where("id = ?", id).
		Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// toBundle flattens a preloaded Round row into the in-memory aggregate.
func toBundle(r *domain.Round) domain.RoundBundle {
	return domain.RoundBundle{
		RoundID:  r.ID,
		Number:   r.Number,
		Question: r.Question,
		Hint1:    r.Hint1,
		Hint2:    r.Hint2,
		Verified: r.Verified,
	}
}
