// Package repo – fact persistence.
//
// Facts are content-addressed: the unique constraint sits on the content
// hash, not on the caller-supplied id. UpsertFact therefore never creates a
// duplicate row for byte-identical content, even under concurrent writers:
// a conflicting insert degrades to a hash lookup, never a second row.
//
// Error semantics:
//   - When a fact is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On other DB errors (store unavailable, constraint violations), the raw
//     gorm error is propagated unchanged; callers must not assume partial
//     success.
package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockstock/trivia-engine/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// UpsertFact persists f and returns the canonical fact id for its content.
//
// The content hash is computed from (number, domain, text, sourceUrl). If a
// row with that hash already exists, its id is returned and the mutable
// fields are refreshed; the caller-supplied id is ignored. Otherwise the fact
// is inserted under the caller id (or a fresh UUID when the id is empty). A
// unique-constraint race with a concurrent writer resolves to the winner's
// row.
func UpsertFact(ctx context.Context, db *gorm.DB, f *domain.Fact) (string, error) {
	hash := domain.HashOf(f)
	f.ContentHash = hash

	var existing domain.Fact
	err := db.WithContext(ctx).Where("content_hash = ?", hash).First(&existing).Error
	switch {
	case err == nil:
		// Hash hit: same content by construction, refresh mutable fields.
		updates := map[string]any{
			"number":     f.Number,
			"domain":     f.Domain,
			"text":       f.Text,
			"source_url": f.SourceURL,
		}
		if uerr := db.WithContext(ctx).Model(&domain.Fact{}).
			Where("id = ?", existing.ID).Updates(updates).Error; uerr != nil {
			return "", uerr
		}
		f.ID = existing.ID
		return existing.ID, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to insert
	default:
		return "", err
	}

	if strings.TrimSpace(f.ID) == "" {
		f.ID = uuid.NewString()
	}
	if cerr := db.WithContext(ctx).Create(f).Error; cerr != nil {
		if isDuplicate(cerr) {
			// Lost the race: another writer inserted the same content first.
			var winner domain.Fact
			if lerr := db.WithContext(ctx).Where("content_hash = ?", hash).First(&winner).Error; lerr != nil {
				return "", lerr
			}
			f.ID = winner.ID
			return winner.ID, nil
		}
		return "", cerr
	}
	return f.ID, nil
}

// GetFact fetches a fact by id, or ErrNotFound if missing.
func GetFact(ctx context.Context, db *gorm.DB, id string) (*domain.Fact, error) {
	var f domain.Fact
	if err := db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFactsByNumber returns every fact supporting the given answer number.
func ListFactsByNumber(ctx context.Context, db *gorm.DB, number int) ([]domain.Fact, error) {
	var out []domain.Fact
	err := db.WithContext(ctx).
		Where("number = ?", number).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// UpdateFactRating sets the running-average rating of a fact. A nil rating
// clears it (no samples yet).
func UpdateFactRating(ctx context.Context, db *gorm.DB, factID string, rating *float64) error {
	return db.WithContext(ctx).Model(&domain.Fact{}).
		Where("id = ?", factID).
		Update("rating", rating).Error
}

// QuarantineFacts flags the given facts as quarantined and returns how many
// rows changed. Quarantine is monotonic here: rows already flagged are left
// untouched and never reset.
func QuarantineFacts(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Model(&domain.Fact{}).
		Where("id IN ? AND quarantined = ?", ids, false).
		Update("quarantined", true)
	return res.RowsAffected, res.Error
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
