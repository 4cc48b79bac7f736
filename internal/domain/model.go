// Package domain holds the typed records shared across the scheduler core.
package domain

import (
	"database/sql"
	"time"
)

// Grade is the coarse result of a recall attempt.
type Grade string

const (
	GradeFail    Grade = "fail"
	GradeGood    Grade = "good"
	GradePerfect Grade = "perfect"
)

// Valid reports whether g is one of the three known grades.
func (g Grade) Valid() bool {
	switch g {
	case GradeFail, GradeGood, GradePerfect:
		return true
	}
	return false
}

// GradedBy records which authority produced the final grade.
type GradedBy string

const (
	GradedByAuto   GradedBy = "auto"
	GradedByParent GradedBy = "parent"
)

// MasteryStatus is the coarse progress tier for a (kid, card) pair.
type MasteryStatus string

const (
	MasteryNew      MasteryStatus = "new"
	MasteryLearning MasteryStatus = "learning"
	MasteryMastered MasteryStatus = "mastered"
)

// ReviewMode controls how a deck's cards are presented and graded.
type ReviewMode string

const (
	ReviewModeFreeRecall   ReviewMode = "free_recall"
	ReviewModeRecitation   ReviewMode = "recitation"
	ReviewModeCloze        ReviewMode = "cloze"
	ReviewModeFirstLetters ReviewMode = "first_letters"
)

// HintMode selects the assist shown alongside a free-recall prompt.
type HintMode string

const (
	HintModeNone         HintMode = "none"
	HintModeFirstLetters HintMode = "first_letters"
	HintModeEveryNthWord HintMode = "every_nth_word"
	HintModeLineByLine   HintMode = "line_by_line"
)

// Kid is a learner the scheduler tracks state for.
type Kid struct {
	ID        int64        `db:"id"`
	Name      string       `db:"name"`
	DeletedAt sql.NullTime `db:"deleted_at"`
}

// Deck is a named grouping of cards with one review mode.
type Deck struct {
	ID         int64        `db:"id"`
	Name       string       `db:"name"`
	ReviewMode ReviewMode   `db:"review_mode"`
	DeletedAt  sql.NullTime `db:"deleted_at"`
}

// Text is a long source text whose chunks became cards.
type Text struct {
	ID        int64        `db:"id"`
	Title     string       `db:"title"`
	Body      string       `db:"body"`
	DeletedAt sql.NullTime `db:"deleted_at"`
}

// Card is an immutable authored memorization item.
type Card struct {
	ID         int64         `db:"id"`
	DeckID     int64         `db:"deck_id"`
	TextID     sql.NullInt64 `db:"text_id"`
	ChunkIndex sql.NullInt64 `db:"chunk_index"`
	Position   int           `db:"position"`
	Prompt     string        `db:"prompt"`
	FullText   string        `db:"full_text"`
	DeletedAt  sql.NullTime  `db:"deleted_at"`
}

// Assignment subscribes a kid to a deck with optional gating and caps.
type Assignment struct {
	KidID       int64          `db:"kid_id"`
	DeckID      int64          `db:"deck_id"`
	Enabled     bool           `db:"enabled"`
	DaysOfWeek  sql.NullString `db:"days_of_week"`
	NewCap      sql.NullInt64  `db:"new_cap"`
	ReviewCap   sql.NullInt64  `db:"review_cap"`
	PausedUntil sql.NullTime   `db:"paused_until"`
	DeckName    string         `db:"deck_name"`
}

// ProgressState is the mutable per-(kid, card) scheduling record.
type ProgressState struct {
	KidID         int64         `db:"kid_id"`
	CardID        int64         `db:"card_id"`
	IntervalDays  int           `db:"interval_days"`
	DueDate       time.Time     `db:"due_date"`
	EaseFactor    float64       `db:"ease_factor"`
	Streak        int           `db:"streak"`
	MasteryStatus MasteryStatus `db:"mastery_status"`
	LastReviewTS  sql.NullTime  `db:"last_review_ts"`
}

// Review is one immutable entry of the append-only review log.
// Only FinalGrade and GradedBy ever change, and only through an
// authority override.
type Review struct {
	ID              int64          `db:"id"`
	CardID          int64          `db:"card_id"`
	KidID           int64          `db:"kid_id"`
	TS              time.Time      `db:"ts"`
	Grade           Grade          `db:"grade"`
	AutoGrade       sql.NullString `db:"auto_grade"`
	FinalGrade      Grade          `db:"final_grade"`
	GradedBy        GradedBy       `db:"graded_by"`
	ReviewMode      ReviewMode     `db:"review_mode"`
	HintMode        HintMode       `db:"hint_mode"`
	UserText        string         `db:"user_text"`
	DurationSeconds sql.NullInt64  `db:"duration_seconds"`
}

// EffectiveGrade is the grade scheduling decisions are based on.
func (r Review) EffectiveGrade() Grade {
	if r.FinalGrade != "" {
		return r.FinalGrade
	}
	return r.Grade
}
