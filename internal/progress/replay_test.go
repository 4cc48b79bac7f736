package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"memcoach/internal/domain"
	"memcoach/internal/scheduler"
)

func reviewAt(day time.Time, grade domain.Grade) domain.Review {
	return domain.Review{
		KidID:      1,
		CardID:     7,
		TS:         day,
		Grade:      grade,
		FinalGrade: grade,
	}
}

func TestReplayEmptyHistoryYieldsDefaultState(t *testing.T) {
	today := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	got := Replay(1, 7, nil, scheduler.DefaultMasteryRule(), today)

	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, 2.5, got.EaseFactor)
	assert.Equal(t, 0, got.Streak)
	assert.Equal(t, domain.MasteryNew, got.MasteryStatus)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got.DueDate)
	assert.False(t, got.LastReviewTS.Valid)
}

func TestReplaySingleReview(t *testing.T) {
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	got := Replay(1, 7, []domain.Review{reviewAt(day, domain.GradePerfect)},
		scheduler.DefaultMasteryRule(), day)

	assert.Equal(t, 6, got.IntervalDays)
	assert.InDelta(t, 2.6, got.EaseFactor, 0.0001)
	assert.Equal(t, 1, got.Streak)
	assert.Equal(t, domain.MasteryLearning, got.MasteryStatus)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), got.DueDate)
	assert.Equal(t, day, got.LastReviewTS.Time)
}

func TestReplayReachesMastered(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	history := []domain.Review{
		reviewAt(base, domain.GradePerfect),
		reviewAt(base.AddDate(0, 0, 6), domain.GradePerfect),
		reviewAt(base.AddDate(0, 0, 22), domain.GradePerfect),
	}
	got := Replay(1, 7, history, scheduler.DefaultMasteryRule(), base.AddDate(0, 0, 30))

	assert.Equal(t, 3, got.Streak)
	assert.Equal(t, domain.MasteryMastered, got.MasteryStatus)
	assert.GreaterOrEqual(t, got.IntervalDays, 7)
	assert.GreaterOrEqual(t, got.EaseFactor, 2.5)
}

func TestReplayIsIdempotent(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	history := []domain.Review{
		reviewAt(base, domain.GradeGood),
		reviewAt(base.AddDate(0, 0, 1), domain.GradeFail),
		reviewAt(base.AddDate(0, 0, 2), domain.GradePerfect),
		reviewAt(base.AddDate(0, 0, 8), domain.GradePerfect),
	}
	today := base.AddDate(0, 0, 20)
	rule := scheduler.DefaultMasteryRule()

	first := Replay(1, 7, history, rule, today)
	second := Replay(1, 7, history, rule, today)
	assert.Equal(t, first, second)
}

func TestReplayUsesFinalGradeOverTheShownGrade(t *testing.T) {
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	overridden := domain.Review{
		KidID:      1,
		CardID:     7,
		TS:         day,
		Grade:      domain.GradeFail,
		FinalGrade: domain.GradePerfect,
		GradedBy:   domain.GradedByParent,
	}
	got := Replay(1, 7, []domain.Review{overridden}, scheduler.DefaultMasteryRule(), day)

	assert.Equal(t, 1, got.Streak)
	assert.Equal(t, 6, got.IntervalDays)
}

func TestReplayFailureMidHistoryResets(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	history := []domain.Review{
		reviewAt(base, domain.GradePerfect),
		reviewAt(base.AddDate(0, 0, 6), domain.GradePerfect),
		reviewAt(base.AddDate(0, 0, 22), domain.GradeFail),
	}
	got := Replay(1, 7, history, scheduler.DefaultMasteryRule(), base.AddDate(0, 0, 23))

	assert.Equal(t, 0, got.Streak)
	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, domain.MasteryNew, got.MasteryStatus)
	assert.Equal(t, time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC), got.DueDate)
}
