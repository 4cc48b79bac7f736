// Package grading turns a recall attempt into a grade and a token-level
// diff for feedback.
package grading

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"memcoach/internal/arbiter"
	"memcoach/internal/domain"
)

const (
	DefaultPerfectThreshold = 0.98
	DefaultGoodThreshold    = 0.85
	DefaultArbiterTimeout   = 15 * time.Second
)

// Thresholds are the similarity cut-offs for automatic grading,
// snapshotted from config once per operation.
type Thresholds struct {
	Perfect            float64
	Good               float64
	EscalateBorderline bool
}

// DefaultThresholds returns the stock grading thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Perfect:            DefaultPerfectThreshold,
		Good:               DefaultGoodThreshold,
		EscalateBorderline: true,
	}
}

// Result is the outcome of grading one submission.
type Result struct {
	Grade      domain.Grade
	Similarity float64
	Escalated  bool
}

// Grader grades recall attempts by normalized edit similarity, escalating
// borderline scores to the arbiter when one is configured.
type Grader struct {
	thresholds     Thresholds
	arbiterClient  arbiter.Client
	arbiterTimeout time.Duration
}

// NewGrader creates a Grader. arbiterClient may be nil; grading then
// treats every borderline score as good without escalation.
func NewGrader(thresholds Thresholds, arbiterClient arbiter.Client, arbiterTimeout time.Duration) *Grader {
	if arbiterTimeout <= 0 {
		arbiterTimeout = DefaultArbiterTimeout
	}
	return &Grader{
		thresholds:     thresholds,
		arbiterClient:  arbiterClient,
		arbiterTimeout: arbiterTimeout,
	}
}

// Grade grades a submission against the reference text.
//
// Empty or whitespace-only submissions fail outright. A similarity at or
// above the perfect threshold is perfect (inclusive boundary). Scores in
// the borderline band go to the arbiter, whose answer is accepted only if
// it is perfect or good; on escalation being disabled, the arbiter being
// absent, or any arbiter error, the band resolves to good. The arbiter is
// never allowed to fail a grading request.
func (g *Grader) Grade(ctx context.Context, referenceText, submittedText string) Result {
	if strings.TrimSpace(submittedText) == "" {
		return Result{Grade: domain.GradeFail}
	}

	similarity := Similarity(referenceText, submittedText)
	switch {
	case similarity >= g.thresholds.Perfect:
		return Result{Grade: domain.GradePerfect, Similarity: similarity}
	case similarity >= g.thresholds.Good:
		return g.resolveBorderline(ctx, referenceText, submittedText, similarity)
	default:
		return Result{Grade: domain.GradeFail, Similarity: similarity}
	}
}

func (g *Grader) resolveBorderline(ctx context.Context, referenceText, submittedText string, similarity float64) Result {
	if !g.thresholds.EscalateBorderline || g.arbiterClient == nil {
		return Result{Grade: domain.GradeGood, Similarity: similarity}
	}

	ctx, cancel := context.WithTimeout(ctx, g.arbiterTimeout)
	defer cancel()

	verdict, err := g.arbiterClient.GradeRecall(ctx, arbiter.GradeRecallRequest{
		ReferenceText: referenceText,
		SubmittedText: submittedText,
	})
	if err != nil {
		slog.Default().Warn("borderline arbitration degraded to good",
			"similarity", similarity,
			"error", err)
		return Result{Grade: domain.GradeGood, Similarity: similarity, Escalated: true}
	}
	if verdict.Grade != domain.GradePerfect && verdict.Grade != domain.GradeGood {
		return Result{Grade: domain.GradeGood, Similarity: similarity, Escalated: true}
	}
	return Result{Grade: verdict.Grade, Similarity: similarity, Escalated: true}
}

// Similarity computes a symmetric Levenshtein ratio in [0, 1] over the
// lowercased, trimmed texts.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}
