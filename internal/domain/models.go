// Package domain defines the persistence models for facts, rounds, and
// per-user seen/feedback records. These types are mapped with GORM and form
// the core data layer of the trivia content engine.
package domain

import (
	"time"
)

// Domain is the topical category of a Fact, drawn from a fixed enumeration.
type Domain string

// The full set of fact domains. A valid round uses three pairwise-distinct
// values from this list.
const (
	DomainHistory    Domain = "history"
	DomainSports     Domain = "sports"
	DomainMovies     Domain = "movies"
	DomainScience    Domain = "science"
	DomainMusic      Domain = "music"
	DomainGeography  Domain = "geography"
	DomainPopCulture Domain = "pop_culture"
	DomainOther      Domain = "other"
)

// Domains returns the fixed enumeration of fact domains.
func Domains() []Domain {
	return []Domain{
		DomainHistory, DomainSports, DomainMovies, DomainScience,
		DomainMusic, DomainGeography, DomainPopCulture, DomainOther,
	}
}

// Valid reports whether d is a member of the fixed domain enumeration.
func (d Domain) Valid() bool {
	switch d {
	case DomainHistory, DomainSports, DomainMovies, DomainScience,
		DomainMusic, DomainGeography, DomainPopCulture, DomainOther:
		return true
	}
	return false
}

// Answer bounds for the shared numeric answer of a round.
const (
	MinNumber = 1
	MaxNumber = 1000
)

// MinFactTextLen is the minimum fact text length accepted at ingestion.
// Generated content is held to the stricter generation minimum.
const MinFactTextLen = 10

// Fact represents a single verifiable trivia claim tied to a numeric answer.
//
// Fields:
//   - ID: stable identifier assigned on first insertion; re-submissions of
//     identical content resolve to this id regardless of the caller's id.
//   - Number: the shared answer this fact supports, in [1,1000].
//   - Domain: topical category from the fixed enumeration.
//   - Text: natural-language claim (>= 10 characters).
//   - SourceURL: optional reference URL.
//   - ContentHash: SHA-256 over (number|domain|text|sourceUrl); unique. This
//     is the canonical identity used for deduplication; caller ids are hints.
//   - Rating: running average of user ratings (1-5), nil until first rating.
//   - Quarantined: excludes the fact from future selection; set only by the
//     quality tracker, cleared only by manual operator action.
//   - UsageCount: how many times the fact was served as part of a round.
type Fact struct {
	ID          string    `json:"id"           gorm:"type:TEXT;primaryKey"`
	Number      int       `json:"number"       gorm:"not null;index:idx_facts_number"`
	Domain      Domain    `json:"domain"       gorm:"type:varchar(16);not null"`
	Text        string    `json:"text"         gorm:"type:text;not null"`
	SourceURL   *string   `json:"source_url,omitempty" gorm:"type:text"`
	ContentHash string    `json:"-"            gorm:"type:TEXT;not null;uniqueIndex:ux_facts_content_hash"`
	Rating      *float64  `json:"rating,omitempty"`
	Quarantined bool      `json:"quarantined"  gorm:"not null;default:false"`
	UsageCount  int       `json:"usage_count"  gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Fact.
func (Fact) TableName() string { return "facts" }

// Round represents exactly three facts bound to one shared number: a question
// and two hints, each from a distinct domain. Round identity is a pure
// function of its constituent fact ids (see RoundID), which makes ingestion
// idempotent: the same three facts always yield the same row.
//
// Verified starts false and flips true only once all three facts pass
// external verification. Rounds are never deleted; they leave circulation
// when one of their facts is quarantined.
type Round struct {
	ID             string    `json:"id"               gorm:"type:TEXT;primaryKey"`
	Number         int       `json:"number"           gorm:"not null;index:idx_rounds_number"`
	QuestionFactID string    `json:"question_fact_id" gorm:"type:TEXT;not null"`
	Hint1FactID    string    `json:"hint1_fact_id"    gorm:"type:TEXT;not null"`
	Hint2FactID    string    `json:"hint2_fact_id"    gorm:"type:TEXT;not null"`
	Verified       bool      `json:"verified"         gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Question Fact `json:"-" gorm:"foreignKey:QuestionFactID;references:ID"`
	Hint1    Fact `json:"-" gorm:"foreignKey:Hint1FactID;references:ID"`
	Hint2    Fact `json:"-" gorm:"foreignKey:Hint2FactID;references:ID"`
}

// TableName returns the database table name for Round.
func (Round) TableName() string { return "rounds" }

// UserSeen records that a user consumed a given fact within a given round,
// plus optional feedback. The (user_id, number, round_id, fact_id) tuple is
// unique, which makes "mark as seen" idempotent; feedback updates the row in
// place. Rows are never deleted.
type UserSeen struct {
	ID               uint      `json:"-"        gorm:"primaryKey;autoIncrement"`
	UserID           string    `json:"user_id"  gorm:"type:varchar(64);not null;uniqueIndex:ux_user_seen,priority:1;index:idx_user_seen_user"`
	Number           int       `json:"number"   gorm:"not null;uniqueIndex:ux_user_seen,priority:2"`
	RoundID          string    `json:"round_id" gorm:"type:TEXT;not null;uniqueIndex:ux_user_seen,priority:3"`
	FactID           string    `json:"fact_id"  gorm:"type:TEXT;not null;uniqueIndex:ux_user_seen,priority:4"`
	Rating           *int      `json:"rating,omitempty"`
	FeedbackCategory *string   `json:"feedback_category,omitempty" gorm:"type:varchar(32)"`
	SeenAt           time.Time `json:"seen_at"`
}

// TableName returns the database table name for UserSeen.
func (UserSeen) TableName() string { return "user_seen" }

// RoundBundle is the in-memory aggregate of a round and its three facts. It
// is the shape content moves through between validation, generation, storage,
// and selection. Number is the shared answer and must equal the Number of all
// three facts (enforced by content.SchemaValid).
type RoundBundle struct {
	RoundID  string `json:"round_id,omitempty"`
	Number   int    `json:"number"`
	Question Fact   `json:"question"`
	Hint1    Fact   `json:"hint1"`
	Hint2    Fact   `json:"hint2"`
	Verified bool   `json:"verified,omitempty"`
}

// Facts returns the three constituent facts in question, hint1, hint2 order.
func (b *RoundBundle) Facts() []*Fact {
	return []*Fact{&b.Question, &b.Hint1, &b.Hint2}
}

// DomainSet returns the set of domains used by the bundle's facts.
func (b *RoundBundle) DomainSet() map[Domain]struct{} {
	set := make(map[Domain]struct{}, 3)
	for _, f := range b.Facts() {
		set[f.Domain] = struct{}{}
	}
	return set
}
