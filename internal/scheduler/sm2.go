// Package scheduler implements the SM-2 derived memory model and the
// mastery classifier.
package scheduler

import (
	"math"
	"time"

	"memcoach/internal/domain"
)

const (
	DefaultEaseFactor   = 2.5
	MinEaseFactor       = 1.3
	DefaultIntervalDays = 1
)

// Update is the result of feeding one graded review into the memory model.
type Update struct {
	IntervalDays int
	EaseFactor   float64
	Streak       int
	DueDate      time.Time
}

// MapGradeToQuality maps a grade to an SM-2 quality score.
// The 3-bucket mapping (0/3/4) is product policy: parents only ever see
// fail/good/perfect, so the finer 0-5 scale is collapsed on purpose.
func MapGradeToQuality(grade domain.Grade) int {
	switch grade {
	case domain.GradeGood:
		return 3
	case domain.GradePerfect:
		return 4
	default:
		return 0
	}
}

// MapQualityToGrade maps a 0-5 quality score, as supplied by a parent
// grading a recitation, back onto the coarse grade scale.
func MapQualityToGrade(quality int) domain.Grade {
	switch {
	case quality >= 4:
		return domain.GradePerfect
	case quality >= 3:
		return domain.GradeGood
	default:
		return domain.GradeFail
	}
}

// Next computes the updated interval, ease factor, streak and due date
// after a review. Pure function: same inputs always produce the same
// Update, and refDate is truncated to its calendar day.
//
// A quality below 3 resets the streak and the interval to one day no
// matter how well the card was known. The ease update is the standard
// SM-2 formula and applies on failures too, floored at MinEaseFactor.
func Next(intervalDays int, easeFactor float64, quality, streak int, refDate time.Time) Update {
	if intervalDays < 1 {
		intervalDays = DefaultIntervalDays
	}
	if easeFactor == 0 {
		easeFactor = DefaultEaseFactor
	}

	var newInterval, newStreak int
	if quality < 3 {
		newStreak = 0
		newInterval = 1
	} else {
		newStreak = streak + 1
		if intervalDays == 1 {
			if quality >= 4 {
				newInterval = 6
			} else {
				newInterval = 1
			}
		} else {
			newInterval = int(math.Round(float64(intervalDays) * easeFactor))
			if newInterval < 1 {
				newInterval = 1
			}
		}
	}

	q := float64(quality)
	newEase := easeFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	newEase = math.Max(newEase, MinEaseFactor)

	day := time.Date(refDate.Year(), refDate.Month(), refDate.Day(), 0, 0, 0, 0, refDate.Location())
	return Update{
		IntervalDays: newInterval,
		EaseFactor:   newEase,
		Streak:       newStreak,
		DueDate:      day.AddDate(0, 0, newInterval),
	}
}
