package content

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/lockstock/trivia-engine/internal/domain"
)

// PackError reports every invalid entry in a content pack. Packs are
// all-or-nothing: a single invalid bundle rejects the whole file so a partial
// load can never slip bad content into circulation.
type PackError struct {
	Problems []string
}

// Error implements the error interface.
func (e *PackError) Error() string {
	return fmt.Sprintf("invalid content pack (%d problems): %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

// LoadPack reads a JSON array of round bundles from r, validates every entry
// with the same checks applied to generated content, and returns the valid
// set shuffled. An empty pack, malformed JSON, or any invalid bundle yields
// an error and no rounds.
func LoadPack(r io.Reader) ([]domain.RoundBundle, error) {
	var bundles []domain.RoundBundle
	dec := json.NewDecoder(r)
	if err := dec.Decode(&bundles); err != nil {
		return nil, fmt.Errorf("parse content pack: %w", err)
	}
	if len(bundles) == 0 {
		return nil, &PackError{Problems: []string{"pack is empty"}}
	}

	var problems []string
	for i := range bundles {
		if err := ValidateBundle(&bundles[i]); err != nil {
			problems = append(problems, fmt.Sprintf("entry %d: %v", i, err))
		}
	}
	if len(problems) > 0 {
		return nil, &PackError{Problems: problems}
	}

	shuffle(bundles)
	return bundles, nil
}

// LoadPackFile opens path and loads it with LoadPack.
func LoadPackFile(path string) ([]domain.RoundBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPack(f)
}

// shuffle randomizes bundle order so repeated seeding does not always serve
// packs in authoring order.
func shuffle(bundles []domain.RoundBundle) {
	rand.Shuffle(len(bundles), func(i, j int) {
		bundles[i], bundles[j] = bundles[j], bundles[i]
	})
}
