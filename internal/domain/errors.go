package domain

import "errors"

var (
	// ErrNotFound covers unknown and soft-deleted kids, decks, cards,
	// assignments and reviews. Surfaced to the caller, not retryable.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when a recitation grade or an override
	// is submitted without parent authority.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput covers malformed quality scores and filters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrArbiterUnavailable never crosses the grading boundary; the
	// grader downgrades it to the good fallback and logs it.
	ErrArbiterUnavailable = errors.New("arbiter unavailable")
)
