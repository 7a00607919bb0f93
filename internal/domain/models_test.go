package domain

import "testing"

func TestDomainValid(t *testing.T) {
	for _, d := range Domains() {
		if !d.Valid() {
			t.Fatalf("enumerated domain %q reported invalid", d)
		}
	}
	for _, d := range []Domain{"", "History", "cinema", "wild trivia"} {
		if d.Valid() {
			t.Fatalf("domain %q should be invalid", d)
		}
	}
}

func TestDomainsCount(t *testing.T) {
	if got := len(Domains()); got != 8 {
		t.Fatalf("expected 8 domains, got %d", got)
	}
}

func TestRoundBundleFactsOrder(t *testing.T) {
	b := RoundBundle{
		Number:   42,
		Question: Fact{ID: "q", Domain: DomainHistory},
		Hint1:    Fact{ID: "h1", Domain: DomainSports},
		Hint2:    Fact{ID: "h2", Domain: DomainScience},
	}
	facts := b.Facts()
	if len(facts) != 3 || facts[0].ID != "q" || facts[1].ID != "h1" || facts[2].ID != "h2" {
		t.Fatalf("unexpected fact order: %+v", facts)
	}
}

func TestRoundBundleDomainSet(t *testing.T) {
	b := RoundBundle{
		Question: Fact{Domain: DomainHistory},
		Hint1:    Fact{Domain: DomainHistory},
		Hint2:    Fact{Domain: DomainScience},
	}
	set := b.DomainSet()
	if len(set) != 2 {
		t.Fatalf("expected 2 distinct domains, got %d", len(set))
	}
	if _, ok := set[DomainHistory]; !ok {
		t.Fatalf("missing history in %v", set)
	}
}
