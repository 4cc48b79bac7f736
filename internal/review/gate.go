// Package review runs the submit and override workflows that tie
// grading, scheduling and the progress store together.
package review

import "context"

//go:generate mockgen -source=gate.go -destination=../mocks/review/mock_gate.go -package=mock_review

// Actions that require an authority check before they take effect.
const (
	ActionOverride        = "override"
	ActionRecitationGrade = "recitation_grade"
)

// AuthorityGate decides whether the caller may perform parent-level
// actions. Implementations return domain.ErrUnauthorized to deny.
type AuthorityGate interface {
	Authorize(ctx context.Context, action string) error
}
