package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lockstock/trivia-engine/internal/domain"
	"github.com/lockstock/trivia-engine/internal/verification"
)

// stubVerifier fails claims listed in failures and passes everything else.
type stubVerifier struct {
	failures map[string]string // claim text -> reason
	calls    int
}

func (v *stubVerifier) Verify(_ context.Context, claim string, _ *string) verification.Result {
	v.calls++
	if reason, ok := v.failures[claim]; ok {
		return verification.Result{OK: false, Reason: reason}
	}
	return verification.Result{OK: true}
}

func TestVerifyRound_AllFactsPass(t *testing.T) {
	db := newServiceDB(t)
	b := mustIngest(t, db, testBundle(42, "a"))

	stub := &stubVerifier{}
	svc := &VerifyService{DB: db, Verifier: stub}

	out, err := svc.VerifyRound(context.Background(), b.RoundID)
	if err != nil {
		t.Fatalf("VerifyRound: %v", err)
	}
	if !out.Verified || len(out.Facts) != 3 {
		t.Fatalf("expected verified outcome over 3 facts, got %+v", out)
	}
	if stub.calls != 3 {
		t.Fatalf("expected 3 lookups, got %d", stub.calls)
	}

	var round domain.Round
	if err := db.First(&round, "id = ?", b.RoundID).Error; err != nil {
		t.Fatalf("load round: %v", err)
	}
	if !round.Verified {
		t.Fatal("verified flag must be persisted")
	}
}

func TestVerifyRound_OneFailureLeavesRoundUnverified(t *testing.T) {
	db := newServiceDB(t)
	b := mustIngest(t, db, testBundle(42, "a"))

	stub := &stubVerifier{failures: map[string]string{
		b.Hint1.Text: verification.ReasonMismatch,
	}}
	svc := &VerifyService{DB: db, Verifier: stub}

	out, err := svc.VerifyRound(context.Background(), b.RoundID)
	if err != nil {
		t.Fatalf("VerifyRound: %v", err)
	}
	if out.Verified {
		t.Fatal("round with a failing fact must stay unverified")
	}
	if stub.calls != 3 {
		t.Fatalf("all facts must still be checked, got %d calls", stub.calls)
	}

	var round domain.Round
	db.First(&round, "id = ?", b.RoundID)
	if round.Verified {
		t.Fatal("verified flag must not be set")
	}

	failed := 0
	for _, fo := range out.Facts {
		if !fo.Result.OK {
			failed++
			if fo.Result.Reason != verification.ReasonMismatch {
				t.Fatalf("unexpected reason %q", fo.Result.Reason)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one failing fact, got %d", failed)
	}
}

// TestVerifyRound_EndToEndWithWiki drives the full path: ingest a bundle,
// verify it through a real encyclopedia client against a local server, and
// observe the verified flag flip.
func TestVerifyRound_EndToEndWithWiki(t *testing.T) {
	db := newServiceDB(t)
	b := mustIngest(t, db, testBundle(1905, "wiki"))

	// The summary endpoint echoes every claim back, so the token heuristic
	// passes for all three facts.
	extract := b.Question.Text + " " + b.Hint1.Text + " " + b.Hint2.Text
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"query": map[string]any{
				"search": []map[string]string{{"title": "Число"}},
			},
		})
	})
	mux.HandleFunc("/api/rest_v1/page/summary/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"extract": extract})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := verification.NewClient(
		verification.WithBaseURL(srv.URL),
		verification.WithRetries(1),
		verification.WithBackoff(time.Millisecond),
		verification.WithCallTimeout(2*time.Second),
		verification.WithRateLimit(1000, 1000),
	)
	svc := &VerifyService{DB: db, Verifier: client}

	out, err := svc.VerifyRound(context.Background(), b.RoundID)
	if err != nil {
		t.Fatalf("VerifyRound: %v", err)
	}
	if !out.Verified {
		t.Fatalf("expected verified outcome, got %+v", out)
	}

	var round domain.Round
	if err := db.First(&round, "id = ?", b.RoundID).Error; err != nil {
		t.Fatalf("load round: %v", err)
	}
	if !round.Verified {
		t.Fatal("verified flag must be persisted")
	}
}

func TestVerifyRound_UnknownRound(t *testing.T) {
	svc := &VerifyService{DB: newServiceDB(t), Verifier: &stubVerifier{}}
	_, err := svc.VerifyRound(context.Background(), "r-a-b-c")
	if !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}
}

func TestVerifyPending_SweepsUnverifiedOnly(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	b1 := mustIngest(t, db, testBundle(10, "a"))
	b2 := mustIngest(t, db, testBundle(20, "a"))

	stub := &stubVerifier{failures: map[string]string{
		b2.Question.Text: verification.ReasonNoContent,
	}}
	svc := &VerifyService{DB: db, Verifier: stub}

	outcomes, err := svc.VerifyPending(ctx)
	if err != nil {
		t.Fatalf("VerifyPending: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}

	byID := map[string]bool{}
	for _, o := range outcomes {
		byID[o.RoundID] = o.Verified
	}
	if !byID[b1.RoundID] || byID[b2.RoundID] {
		t.Fatalf("unexpected outcomes: %+v", byID)
	}

	// Second sweep only revisits the still-unverified round.
	stub.calls = 0
	outcomes, err = svc.VerifyPending(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].RoundID != b2.RoundID {
		t.Fatalf("expected only the failed round pending, got %+v", outcomes)
	}
}
