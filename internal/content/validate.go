// Package content implements validation and batch loading of trivia content.
//
// The validation functions are pure predicates over an in-memory round
// bundle: no storage access, no side effects. A bundle is acceptable iff the
// schema check, the domain-distinctness check, and the banned-pattern check
// all pass; ValidateBundle aggregates every failed check into a single
// ValidationError so callers (pack loading, generation retry loops) can log
// or report the complete picture instead of the first failure only.
package content

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lockstock/trivia-engine/internal/domain"
)

// bannedPatterns reject "head-math" shortcuts: questions answerable by
// counting letters or dates, episode/season numbering, and explicit ordinal
// phrasing. Matching is case-insensitive; any match rejects the whole text.
var bannedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)подсч(е|ё)т[а-яё\s]*букв`),
	regexp.MustCompile(`(?i)сколько[\s-]*букв`),
	regexp.MustCompile(`(?i)сколько[\s-]*дат`),
	regexp.MustCompile(`(?i)номер серии`),
	regexp.MustCompile(`(?i)номер эпизода`),
	regexp.MustCompile(`(?i)сколько[\s-]*серий`),
	regexp.MustCompile(`(?i)сколько[\s-]*сезонов`),
	regexp.MustCompile(`(?i)какой[\s-]*номер`),
	regexp.MustCompile(`(?i)по\s+сч(е|ё)т[уе]`),
}

// DomainsDistinct reports whether the three facts' domains form a
// three-element set.
func DomainsDistinct(b *domain.RoundBundle) bool {
	return len(b.DomainSet()) == 3
}

// NoBannedPatterns reports whether text is free of every banned pattern.
func NoBannedPatterns(text string) bool {
	for _, re := range bannedPatterns {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}

// SchemaValid reports whether the bundle conforms to the round schema:
// number in [1,1000], every fact text at least the minimum length, every
// domain a member of the fixed enumeration, and every fact's number equal to
// the round's number.
func SchemaValid(b *domain.RoundBundle) bool {
	if b.Number < domain.MinNumber || b.Number > domain.MaxNumber {
		return false
	}
	for _, f := range b.Facts() {
		if utf8.RuneCountInString(strings.TrimSpace(f.Text)) < domain.MinFactTextLen {
			return false
		}
		if !f.Domain.Valid() {
			return false
		}
		if f.Number != b.Number {
			return false
		}
	}
	return true
}

// ValidationError aggregates every check a bundle failed. It is always
// recoverable: the caller regenerates or rejects the content, it never
// propagates past ingestion.
type ValidationError struct {
	Failures []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid round: " + strings.Join(e.Failures, "; ")
}

// ValidateBundle runs all checks over the bundle and each of its three texts
// independently. It returns nil when the bundle is acceptable, otherwise a
// *ValidationError naming every failed check.
func ValidateBundle(b *domain.RoundBundle) error {
	var failures []string
	if !SchemaValid(b) {
		failures = append(failures, "schema")
	}
	if !DomainsDistinct(b) {
		failures = append(failures, "domains not distinct")
	}
	for i, f := range b.Facts() {
		if !NoBannedPatterns(f.Text) {
			failures = append(failures, fmt.Sprintf("banned pattern in fact %d", i))
		}
	}
	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}
	return nil
}
