package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lockstock/trivia-engine/internal/domain"
)

// newServiceDB opens a throwaway SQLite database with the full engine schema.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(&domain.Fact{}, &domain.Round{}, &domain.UserSeen{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// testBundle builds a valid round bundle for number. The salt keeps repeated
// bundles for the same number textually distinct.
func testBundle(number int, salt string) *domain.RoundBundle {
	return &domain.RoundBundle{
		Number:   number,
		Question: domain.Fact{Number: number, Domain: domain.DomainHistory, Text: fmt.Sprintf("Историческая хроника упоминает число %d вариант %s", number, salt)},
		Hint1:    domain.Fact{Number: number, Domain: domain.DomainSports, Text: fmt.Sprintf("Спортивная статистика содержит число %d вариант %s", number, salt)},
		Hint2:    domain.Fact{Number: number, Domain: domain.DomainScience, Text: fmt.Sprintf("Научная работа приводит число %d вариант %s", number, salt)},
	}
}

// mustIngest ingests a bundle through the real ingest service and returns it
// with store ids filled in.
func mustIngest(t *testing.T, db *gorm.DB, b *domain.RoundBundle) *domain.RoundBundle {
	t.Helper()
	svc := &IngestService{DB: db}
	if _, err := svc.IngestBundle(context.Background(), b, SourcePack); err != nil {
		t.Fatalf("ingest bundle: %v", err)
	}
	return b
}
