package scheduler

import "memcoach/internal/domain"

// MasteryRule is the per-deck threshold set for the mastered tier.
type MasteryRule struct {
	ConsecutiveGrades int     `db:"consecutive_grades"`
	MinEaseFactor     float64 `db:"min_ease_factor"`
	MinIntervalDays   int     `db:"min_interval_days"`
}

// DefaultMasteryRule returns the system defaults used when a deck has no
// rule of its own.
func DefaultMasteryRule() MasteryRule {
	return MasteryRule{
		ConsecutiveGrades: 3,
		MinEaseFactor:     2.5,
		MinIntervalDays:   7,
	}
}

// ClassifyMastery maps the current scheduling state onto a mastery tier.
// All three thresholds must hold at once; a long streak on a card with a
// low ease factor stays learning.
func ClassifyMastery(streak int, easeFactor float64, intervalDays int, rule MasteryRule) domain.MasteryStatus {
	if streak <= 0 {
		return domain.MasteryNew
	}
	if streak >= rule.ConsecutiveGrades &&
		easeFactor >= rule.MinEaseFactor &&
		intervalDays >= rule.MinIntervalDays {
		return domain.MasteryMastered
	}
	return domain.MasteryLearning
}

// MasteryPercent reports the mastered share of a deck, rounded to one
// decimal place.
func MasteryPercent(mastered, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(int(float64(mastered)/float64(total)*1000+0.5)) / 10
}
