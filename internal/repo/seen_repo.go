// Package repo – per-user seen/feedback persistence.
//
// "Mark as seen" inserts one row per constituent fact under the unique
// (user_id, number, round_id, fact_id) tuple; replays are no-ops thanks to
// the ON CONFLICT DO NOTHING insert, so the operation is idempotent without
// any caller-side locking.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lockstock/trivia-engine/internal/domain"
)

// MarkSeen records that userID consumed the given round (all three facts)
// under one logical operation. The first call also bumps each fact's usage
// counter; repeated calls for the same tuple change nothing.
func MarkSeen(ctx context.Context, db *gorm.DB, userID, roundID string, number int, factIDs []string) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, factID := range factIDs {
			row := &domain.UserSeen{
				UserID:  userID,
				Number:  number,
				RoundID: roundID,
				FactID:  factID,
				SeenAt:  now,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if err := tx.Model(&domain.Fact{}).
					Where("id = ?", factID).
					UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SeenNumbers returns the distinct answer numbers userID has already seen.
func SeenNumbers(ctx context.Context, db *gorm.DB, userID string) ([]int, error) {
	var out []int
	err := db.WithContext(ctx).Model(&domain.UserSeen{}).
		Distinct("number").
		Where("user_id = ?", userID).
		Pluck("number", &out).Error
	return out, err
}

// RecentRoundIDs returns up to limit round ids most recently served to
// userID, newest first.
func RecentRoundIDs(ctx context.Context, db *gorm.DB, userID string, limit int) ([]string, error) {
	type row struct {
		RoundID string
		Last    time.Time
	}
	var rows []row
	err := db.WithContext(ctx).Model(&domain.UserSeen{}).
		Select("round_id, MAX(seen_at) as last").
		Where("user_id = ?", userID).
		Group("round_id").
		Order("last desc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.RoundID)
	}
	return ids, nil
}

// SaveFeedback updates the rating and/or category on the existing seen rows
// for (userID, roundID). Each non-nil field overwrites in place, so repeated
// feedback replaces earlier feedback rather than accumulating rows. Returns
// ErrNotFound when the user never saw the round.
func SaveFeedback(ctx context.Context, db *gorm.DB, userID, roundID string, rating *int, category *string) error {
	updates := map[string]any{}
	if rating != nil {
		updates["rating"] = *rating
	}
	if category != nil {
		updates["feedback_category"] = *category
	}
	if len(updates) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(&domain.UserSeen{}).
		Where("user_id = ? AND round_id = ?", userID, roundID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFeedback returns every seen row carrying feedback (a rating or a
// category). The quality tracker folds these into per-fact snapshots.
func ListFeedback(ctx context.Context, db *gorm.DB) ([]domain.UserSeen, error) {
	var out []domain.UserSeen
	err := db.WithContext(ctx).
		Where("rating IS NOT NULL OR feedback_category IS NOT NULL").
		Find(&out).Error
	return out, err
}
