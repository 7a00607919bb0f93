// Package services defines the business logic for content ingestion,
// verification, selection, and quality tracking. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or exit codes should be performed at the CLI layer.
package services

import "errors"

var (
	// ErrNoContent is returned by the selector when no round satisfies the
	// exclusion rules for the user. It is an expected exhaustion signal, not
	// a failure.
	ErrNoContent = errors.New("no eligible round for user")

	// ErrRoundNotFound indicates that the requested round does not exist.
	ErrRoundNotFound = errors.New("round not found")

	// ErrRoundNotSeen is returned when feedback targets a round the user was
	// never served.
	ErrRoundNotSeen = errors.New("round was not seen by this user")

	// ErrInvalidRating is returned when a feedback rating is outside the
	// allowed 1..5 range.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrInvalidCategory is returned when a feedback category is not a member
	// of the fixed category set.
	ErrInvalidCategory = errors.New("unknown feedback category")
)
