package progress

import (
	"time"

	"memcoach/internal/domain"
	"memcoach/internal/scheduler"
)

// Replay reconstructs the progress state for one (kid, card) pair by
// running its whole review history through the memory model in order.
// This is the retroactive-correction mechanism: after a grade override,
// rebuilding from scratch keeps every later review consistent, which an
// incremental patch cannot guarantee. Idempotent for a fixed history.
//
// reviews must already be in (ts, id) order, as FindByKidAndCard returns
// them. An empty history yields the default state due on today.
func Replay(kidID, cardID int64, reviews []domain.Review, rule scheduler.MasteryRule, today time.Time) domain.ProgressState {
	state := DefaultState(kidID, cardID, today)
	for _, review := range reviews {
		quality := scheduler.MapGradeToQuality(review.EffectiveGrade())
		update := scheduler.Next(state.IntervalDays, state.EaseFactor, quality, state.Streak, review.TS)

		state.IntervalDays = update.IntervalDays
		state.EaseFactor = update.EaseFactor
		state.Streak = update.Streak
		state.DueDate = update.DueDate
		state.MasteryStatus = scheduler.ClassifyMastery(update.Streak, update.EaseFactor, update.IntervalDays, rule)
		state.LastReviewTS.Time = review.TS
		state.LastReviewTS.Valid = true
	}
	return state
}
