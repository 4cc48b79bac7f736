package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"memcoach/internal/domain"
)

// ReviewRepository is the append-only audit sink for review records.
type ReviewRepository struct {
	ext sqlx.ExtContext
}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{ext: db}
}

// WithTx returns a ReviewRepository bound to the given transaction.
func (r *ReviewRepository) WithTx(tx *sqlx.Tx) *ReviewRepository {
	return &ReviewRepository{ext: tx}
}

// Insert appends a review record and fills in its id.
func (r *ReviewRepository) Insert(ctx context.Context, review *domain.Review) error {
	result, err := r.ext.ExecContext(ctx, `
		INSERT INTO reviews (
			card_id, kid_id, ts, grade, auto_grade, final_grade,
			graded_by, review_mode, hint_mode, user_text, duration_seconds
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		review.CardID, review.KidID, review.TS, review.Grade, review.AutoGrade,
		review.FinalGrade, review.GradedBy, review.ReviewMode, review.HintMode,
		review.UserText, review.DurationSeconds)
	if err != nil {
		return fmt.Errorf("db.ExecContext(insert review) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("result.LastInsertId() > %w", err)
	}
	review.ID = id
	return nil
}

// Get returns one review record by id.
func (r *ReviewRepository) Get(ctx context.Context, reviewID int64) (*domain.Review, error) {
	var review domain.Review
	err := sqlx.GetContext(ctx, r.ext, &review,
		"SELECT * FROM reviews WHERE id = ?", reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %d: %w", reviewID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(review) > %w", err)
	}
	return &review, nil
}

// FindByKidAndCard returns a kid's full review history for one card in
// timestamp order, ties broken by insert order. This is the replay input.
func (r *ReviewRepository) FindByKidAndCard(ctx context.Context, kidID, cardID int64) ([]domain.Review, error) {
	var reviews []domain.Review
	err := sqlx.SelectContext(ctx, r.ext, &reviews,
		"SELECT * FROM reviews WHERE kid_id = ? AND card_id = ? ORDER BY ts, id",
		kidID, cardID)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(reviews by kid and card) > %w", err)
	}
	return reviews, nil
}

// UpdateFinalGrade changes the final grade and grading authority of one
// review. The only mutation the log permits.
func (r *ReviewRepository) UpdateFinalGrade(ctx context.Context, reviewID int64, grade domain.Grade, gradedBy domain.GradedBy) error {
	result, err := r.ext.ExecContext(ctx,
		"UPDATE reviews SET final_grade = ?, graded_by = ? WHERE id = ?",
		grade, gradedBy, reviewID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update review final_grade) > %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("review %d: %w", reviewID, domain.ErrNotFound)
	}
	return nil
}

// RecentDurations returns the kid's most recent recorded review
// durations, newest first, up to limit.
func (r *ReviewRepository) RecentDurations(ctx context.Context, kidID int64, limit int) ([]int, error) {
	var durations []int
	err := sqlx.SelectContext(ctx, r.ext, &durations, `
		SELECT duration_seconds FROM reviews
		WHERE kid_id = ? AND duration_seconds IS NOT NULL
		ORDER BY ts DESC
		LIMIT ?`,
		kidID, limit)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(recent durations) > %w", err)
	}
	return durations, nil
}
