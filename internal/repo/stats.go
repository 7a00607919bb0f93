// Package repo – aggregate/statistics queries.
//
// This file provides the small aggregate reads behind the operator quality
// report. Each function is context-aware and safe to call from services.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/lockstock/trivia-engine/internal/domain"
)

// QualityTotals returns aggregate metadata over the fact pool: the total
// number of facts, how many are quarantined, and the average rating across
// facts that have one. avgRating is nil when no fact has been rated yet.
func QualityTotals(ctx context.Context, db *gorm.DB) (total, quarantined int64, avgRating *float64, err error) {
	m := db.WithContext(ctx).Model(&domain.Fact{})

	if err = m.Count(&total).Error; err != nil {
		return 0, 0, nil, err
	}
	if err = db.WithContext(ctx).Model(&domain.Fact{}).
		Where("quarantined = ?", true).
		Count(&quarantined).Error; err != nil {
		return 0, 0, nil, err
	}

	var row struct {
		Avg *float64
	}
	if err = db.WithContext(ctx).Model(&domain.Fact{}).
		Select("AVG(rating) as avg").
		Where("rating IS NOT NULL").
		Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return total, quarantined, row.Avg, nil
}

// WorstFacts returns up to limit facts with the lowest non-null rating,
// worst first.
func WorstFacts(ctx context.Context, db *gorm.DB, limit int) ([]domain.Fact, error) {
	var out []domain.Fact
	err := db.WithContext(ctx).
		Where("rating IS NOT NULL").
		Order("rating asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
