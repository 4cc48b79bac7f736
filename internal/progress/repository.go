// Package progress persists per-(kid, card) scheduling state and the
// append-only review log, and reconstructs state by replaying history.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"memcoach/internal/domain"
	"memcoach/internal/scheduler"
)

// Repository implements the progress store using MySQL. It runs against
// the root DB by default; WithTx rebinds it to a transaction so the
// review workflow can make its Persisted step atomic.
type Repository struct {
	ext sqlx.ExtContext
}

// NewRepository creates a new progress Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{ext: db}
}

// WithTx returns a Repository bound to the given transaction.
func (r *Repository) WithTx(tx *sqlx.Tx) *Repository {
	return &Repository{ext: tx}
}

// DefaultState is the implied state of a never-reviewed card: due today,
// at the starting interval and ease.
func DefaultState(kidID, cardID int64, today time.Time) domain.ProgressState {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return domain.ProgressState{
		KidID:         kidID,
		CardID:        cardID,
		IntervalDays:  scheduler.DefaultIntervalDays,
		DueDate:       day,
		EaseFactor:    scheduler.DefaultEaseFactor,
		Streak:        0,
		MasteryStatus: domain.MasteryNew,
	}
}

// GetForUpdate returns the progress state holding a row-level lock for
// the rest of the transaction. Must be called on a WithTx repository;
// submit and override both take the lock before recomputing, so
// concurrent attempts for the same pair serialize instead of clobbering
// each other's state.
func (r *Repository) GetForUpdate(ctx context.Context, kidID, cardID int64) (*domain.ProgressState, error) {
	var state domain.ProgressState
	err := sqlx.GetContext(ctx, r.ext, &state,
		"SELECT * FROM card_progress WHERE kid_id = ? AND card_id = ? FOR UPDATE",
		kidID, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(card_progress for update) > %w", err)
	}
	return &state, nil
}

// Upsert writes the state, replacing any previous row for the pair.
func (r *Repository) Upsert(ctx context.Context, state domain.ProgressState) error {
	_, err := r.ext.ExecContext(ctx, `
		INSERT INTO card_progress (
			kid_id, card_id, interval_days, due_date, ease_factor,
			streak, mastery_status, last_review_ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			interval_days = VALUES(interval_days),
			due_date = VALUES(due_date),
			ease_factor = VALUES(ease_factor),
			streak = VALUES(streak),
			mastery_status = VALUES(mastery_status),
			last_review_ts = VALUES(last_review_ts)`,
		state.KidID, state.CardID, state.IntervalDays, state.DueDate,
		state.EaseFactor, state.Streak, state.MasteryStatus, state.LastReviewTS)
	if err != nil {
		return fmt.Errorf("db.ExecContext(upsert card_progress) > %w", err)
	}
	return nil
}
