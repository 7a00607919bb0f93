package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/lockstock/trivia-engine/internal/domain"
)

func newFact(number int, d domain.Domain, text string) *domain.Fact {
	return &domain.Fact{Number: number, Domain: d, Text: text}
}

func TestUpsertFact_InsertAssignsID(t *testing.T) {
	db := newEngineDB(t)

	f := newFact(42, domain.DomainHistory, "Сорок два корабля участвовали в сражении")
	id, err := UpsertFact(context.Background(), db, f)
	if err != nil {
		t.Fatalf("UpsertFact: %v", err)
	}
	if id == "" || f.ID != id {
		t.Fatalf("expected generated id propagated to fact, got id=%q f.ID=%q", id, f.ID)
	}
	if f.ContentHash == "" {
		t.Fatal("content hash must be set on insert")
	}

	got, err := GetFact(context.Background(), db, id)
	if err != nil {
		t.Fatalf("GetFact: %v", err)
	}
	if got.Text != f.Text || got.Number != 42 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestUpsertFact_IdenticalContentResolvesToSameRow(t *testing.T) {
	db := newEngineDB(t)
	ctx := context.Background()

	first := newFact(7, domain.DomainScience, "Семь цветов различают в спектре радуги")
	id1, err := UpsertFact(ctx, db, first)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same content, different caller id: must resolve to the first row.
	second := newFact(7, domain.DomainScience, "Семь цветов различают в спектре радуги")
	second.ID = "caller-supplied-id"
	id2, err := UpsertFact(ctx, db, second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("identical content must dedupe: got %q, want %q", id2, id1)
	}

	var count int64
	if err := db.Model(&domain.Fact{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}
}

func TestUpsertFact_DifferentContentDifferentRows(t *testing.T) {
	db := newEngineDB(t)
	ctx := context.Background()

	id1, err := UpsertFact(ctx, db, newFact(7, domain.DomainScience, "Семь цветов различают в спектре радуги"))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// Same text, different domain: distinct content identity.
	id2, err := UpsertFact(ctx, db, newFact(7, domain.DomainOther, "Семь цветов различают в спектре радуги"))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 == id2 {
		t.Fatal("different domain must produce a distinct fact row")
	}
}

func TestUpsertFact_SourceURLPartOfIdentity(t *testing.T) {
	db := newEngineDB(t)
	ctx := context.Background()

	plain := newFact(9, domain.DomainMusic, "Девять симфоний завершил великий композитор")
	id1, err := UpsertFact(ctx, db, plain)
	if err != nil {
		t.Fatalf("upsert without url: %v", err)
	}

	u := "https://ru.wikipedia.org/wiki/Бетховен"
	sourced := newFact(9, domain.DomainMusic, "Девять симфоний завершил великий композитор")
	sourced.SourceURL = &u
	id2, err := UpsertFact(ctx, db, sourced)
	if err != nil {
		t.Fatalf("upsert with url: %v", err)
	}
	if id1 == id2 {
		t.Fatal("source url must contribute to content identity")
	}
}

func TestGetFact_NotFound(t *testing.T) {
	db := newEngineDB(t)
	if _, err := GetFact(context.Background(), db, "missing"); err == nil {
		t.Fatal("expected ErrNotFound for unknown id")
	}
}

func TestListFactsByNumber(t *testing.T) {
	db := newEngineDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f := newFact(100, domain.DomainHistory, fmt.Sprintf("Сто событий случилось в хронике номер %d", i))
		if _, err := UpsertFact(ctx, db, f); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if _, err := UpsertFact(ctx, db, newFact(200, domain.DomainSports, "Двести метров составила дистанция забега")); err != nil {
		t.Fatalf("seed other number: %v", err)
	}

	got, err := ListFactsByNumber(ctx, db, 100)
	if err != nil {
		t.Fatalf("ListFactsByNumber: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 facts for number 100, got %d", len(got))
	}
}

func TestUpdateFactRating_SetAndClear(t *testing.T) {
	db := newEngineDB(t)
	ctx := context.Background()

	f := newFact(5, domain.DomainMovies, "Пять частей насчитывает известная сага")
	id, err := UpsertFact(ctx, db, f)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	avg := 4.5
	if err := UpdateFactRating(ctx, db, id, &avg); err != nil {
		t.Fatalf("set rating: %v", err)
	}
	got, _ := GetFact(ctx, db, id)
	if got.Rating == nil || *got.Rating != 4.5 {
		t.Fatalf("rating not persisted: %+v", got.Rating)
	}

	if err := UpdateFactRating(ctx, db, id, nil); err != nil {
		t.Fatalf("clear rating: %v", err)
	}
	got, _ = GetFact(ctx, db, id)
	if got.Rating != nil {
		t.Fatalf("rating should be cleared, got %v", *got.Rating)
	}
}

func TestQuarantineFacts_MonotonicAndCounted(t *testing.T) {
	db := newEngineDB(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 2; i++ {
		f := newFact(11, domain.DomainGeography, fmt.Sprintf("Одиннадцать островов входят в архипелаг %d", i))
		id, err := UpsertFact(ctx, db, f)
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	n, err := QuarantineFacts(ctx, db, ids)
	if err != nil {
		t.Fatalf("QuarantineFacts: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows changed, got %d", n)
	}

	// Replay: already-flagged rows are untouched.
	n, err = QuarantineFacts(ctx, db, ids)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if n != 0 {
		t.Fatalf("replay must change 0 rows, got %d", n)
	}

	for _, id := range ids {
		got, _ := GetFact(ctx, db, id)
		if !got.Quarantined {
			t.Fatalf("fact %s should be quarantined", id)
		}
	}
}

func TestQuarantineFacts_EmptyInput(t *testing.T) {
	db := newEngineDB(t)
	n, err := QuarantineFacts(context.Background(), db, nil)
	if err != nil || n != 0 {
		t.Fatalf("empty input must be a no-op, got n=%d err=%v", n, err)
	}
}
