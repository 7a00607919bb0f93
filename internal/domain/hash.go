// Package domain – content-addressed identity.
//
// Deduplication in the engine is anchored on a canonical fingerprint of a
// fact's meaningful fields rather than on caller-supplied ids. Two callers
// submitting byte-identical content always resolve to the same fact row, and
// round identity is a pure function of the three resolved fact ids, so
// re-ingesting the same content is idempotent end to end.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ContentHash returns the canonical fingerprint of a fact: the hex-encoded
// SHA-256 of "number|domain|text|sourceUrl". An absent source URL hashes as
// the empty string, so adding a URL later produces distinct content.
func ContentHash(number int, d Domain, text string, sourceURL *string) string {
	src := ""
	if sourceURL != nil {
		src = *sourceURL
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s", number, d, text, src)))
	return hex.EncodeToString(sum[:])
}

// HashOf computes the content hash for an existing fact value.
func HashOf(f *Fact) string {
	return ContentHash(f.Number, f.Domain, f.Text, f.SourceURL)
}

// RoundID derives the deterministic round identifier from the three
// constituent fact ids (question, hint1, hint2, in that order). The same
// three facts always yield the same round id.
func RoundID(questionID, hint1ID, hint2ID string) string {
	return strings.Join([]string{"r", questionID, hint1ID, hint2ID}, "-")
}
