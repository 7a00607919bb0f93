package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lockstock/trivia-engine/internal/content"
	"github.com/lockstock/trivia-engine/internal/domain"
)

func TestIngestBundle_PersistsFactsAndRound(t *testing.T) {
	db := newServiceDB(t)
	svc := &IngestService{DB: db}

	b := testBundle(42, "a")
	id, err := svc.IngestBundle(context.Background(), b, SourcePack)
	if err != nil {
		t.Fatalf("IngestBundle: %v", err)
	}
	if id == "" || b.RoundID != id {
		t.Fatalf("round id not propagated: id=%q bundle=%q", id, b.RoundID)
	}
	for i, f := range b.Facts() {
		if f.ID == "" {
			t.Fatalf("fact %d id not assigned", i)
		}
	}

	var facts, rounds int64
	db.Model(&domain.Fact{}).Count(&facts)
	db.Model(&domain.Round{}).Count(&rounds)
	if facts != 3 || rounds != 1 {
		t.Fatalf("expected 3 facts and 1 round, got %d/%d", facts, rounds)
	}
}

func TestIngestBundle_IdempotentOnIdenticalContent(t *testing.T) {
	db := newServiceDB(t)
	svc := &IngestService{DB: db}
	ctx := context.Background()

	id1, err := svc.IngestBundle(ctx, testBundle(42, "a"), SourcePack)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	id2, err := svc.IngestBundle(ctx, testBundle(42, "a"), SourceGenerated)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("identical content must yield the same round id: %q vs %q", id1, id2)
	}

	var facts, rounds int64
	db.Model(&domain.Fact{}).Count(&facts)
	db.Model(&domain.Round{}).Count(&rounds)
	if facts != 3 || rounds != 1 {
		t.Fatalf("replay must not duplicate rows, got facts=%d rounds=%d", facts, rounds)
	}
}

func TestIngestBundle_RejectsInvalidBundleWithoutWriting(t *testing.T) {
	db := newServiceDB(t)
	svc := &IngestService{DB: db}

	bad := testBundle(42, "a")
	bad.Hint1.Domain = domain.DomainHistory // collides with the question

	_, err := svc.IngestBundle(context.Background(), bad, SourcePack)
	var verr *content.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	var facts int64
	db.Model(&domain.Fact{}).Count(&facts)
	if facts != 0 {
		t.Fatalf("invalid bundle must write nothing, got %d facts", facts)
	}
}

func writePack(t *testing.T, bundles []domain.RoundBundle) string {
	t.Helper()
	raw, err := json.Marshal(bundles)
	if err != nil {
		t.Fatalf("marshal pack: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pack.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	return path
}

func TestIngestPack_LoadsEveryBundle(t *testing.T) {
	db := newServiceDB(t)
	svc := &IngestService{DB: db}

	path := writePack(t, []domain.RoundBundle{
		*testBundle(10, "a"),
		*testBundle(20, "a"),
		*testBundle(30, "a"),
	})

	n, err := svc.IngestPack(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestPack: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rounds ingested, got %d", n)
	}

	var rounds int64
	db.Model(&domain.Round{}).Count(&rounds)
	if rounds != 3 {
		t.Fatalf("expected 3 round rows, got %d", rounds)
	}
}

func TestIngestPack_RejectsWholePackOnOneBadEntry(t *testing.T) {
	db := newServiceDB(t)
	svc := &IngestService{DB: db}

	bad := *testBundle(20, "a")
	bad.Question.Text = "коротко" // below the minimum length
	path := writePack(t, []domain.RoundBundle{*testBundle(10, "a"), bad})

	_, err := svc.IngestPack(context.Background(), path)
	var perr *content.PackError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PackError, got %v", err)
	}

	var rounds int64
	db.Model(&domain.Round{}).Count(&rounds)
	if rounds != 0 {
		t.Fatalf("rejected pack must write nothing, got %d rounds", rounds)
	}
}

func TestIngestPack_MissingFile(t *testing.T) {
	svc := &IngestService{DB: newServiceDB(t)}
	if _, err := svc.IngestPack(context.Background(), filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing pack file")
	}
}
