// Package arbiter defines the optional secondary grader consulted for
// borderline recall scores.
package arbiter

import (
	"context"

	"memcoach/internal/domain"
)

//go:generate mockgen -source=interface.go -destination=../mocks/arbiter/mock_client.go -package=mock_arbiter

// Client interface defines the borderline arbitration operation.
// Implementations are best-effort: callers must treat every error as a
// degraded-mode signal, never as a grading failure.
type Client interface {
	GradeRecall(ctx context.Context, params GradeRecallRequest) (GradeRecallResponse, error)
}

// GradeRecallRequest carries the full reference/submission pair.
type GradeRecallRequest struct {
	ReferenceText string `json:"reference_text"`
	SubmittedText string `json:"submitted_text"`
}

// GradeRecallResponse is the arbiter's verdict.
type GradeRecallResponse struct {
	Grade  domain.Grade `json:"grade"`
	Reason string       `json:"reason,omitempty"`
}

const DefaultMaxRetryAttempts = 2
