package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"memcoach/internal/content"
	"memcoach/internal/database"
	"memcoach/internal/domain"
	"memcoach/internal/grading"
	"memcoach/internal/progress"
	"memcoach/internal/scheduler"
)

// SubmitRequest is one recall attempt.
type SubmitRequest struct {
	KidID  int64
	DeckID int64
	CardID int64

	// SubmittedText is the kid's typed recall. Ignored for recitation
	// decks, where the listening parent judges the attempt instead.
	SubmittedText string

	// Quality is the parent's 0 to 5 judgment for recitation decks.
	Quality int

	HintMode        domain.HintMode
	DurationSeconds int
}

// SubmitResult is what a submit hands back for display.
type SubmitResult struct {
	Review     domain.Review
	Progress   domain.ProgressState
	Similarity float64
	Escalated  bool
	Diff       grading.TokenDiff
}

// Workflow coordinates a review from submission to persisted schedule.
type Workflow struct {
	db      *sqlx.DB
	content *content.Repository
	grader  *grading.Grader
	states  *progress.Repository
	reviews *progress.ReviewRepository
	gate    AuthorityGate
	logger  *slog.Logger
	now     func() time.Time
}

// NewWorkflow creates a review Workflow.
func NewWorkflow(
	db *sqlx.DB,
	contentRepo *content.Repository,
	grader *grading.Grader,
	states *progress.Repository,
	reviews *progress.ReviewRepository,
	gate AuthorityGate,
	logger *slog.Logger,
) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		db:      db,
		content: contentRepo,
		grader:  grader,
		states:  states,
		reviews: reviews,
		gate:    gate,
		logger:  logger,
		now:     time.Now,
	}
}

// Submit grades one attempt and advances the card's schedule. The review
// record and the updated progress state commit in one transaction, with
// the progress row locked for its duration, so a recorded attempt can
// never leave the schedule behind or clobber a concurrent attempt.
func (w *Workflow) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	card, err := w.content.GetCard(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if card.DeckID != req.DeckID {
		// A card submitted under the wrong deck is indistinguishable
		// from a card that does not exist.
		return nil, fmt.Errorf("card %d in deck %d: %w", req.CardID, req.DeckID, domain.ErrNotFound)
	}

	result := &SubmitResult{}
	review := domain.Review{
		CardID:     req.CardID,
		KidID:      req.KidID,
		TS:         w.now(),
		ReviewMode: card.ReviewMode,
		HintMode:   req.HintMode,
		UserText:   req.SubmittedText,
	}
	if req.DurationSeconds > 0 {
		review.DurationSeconds = sql.NullInt64{Int64: int64(req.DurationSeconds), Valid: true}
	}
	if review.HintMode == "" {
		review.HintMode = domain.HintModeNone
	}

	if card.ReviewMode == domain.ReviewModeRecitation {
		if err := w.gate.Authorize(ctx, ActionRecitationGrade); err != nil {
			return nil, fmt.Errorf("gate.Authorize(%s) > %w", ActionRecitationGrade, err)
		}
		if req.Quality < 0 || req.Quality > 5 {
			return nil, fmt.Errorf("recitation quality %d: %w", req.Quality, domain.ErrInvalidInput)
		}
		review.Grade = scheduler.MapQualityToGrade(req.Quality)
		review.GradedBy = domain.GradedByParent
	} else {
		graded := w.grader.Grade(ctx, card.FullText, req.SubmittedText)
		review.Grade = graded.Grade
		review.AutoGrade = sql.NullString{String: string(graded.Grade), Valid: true}
		review.GradedBy = domain.GradedByAuto
		result.Similarity = graded.Similarity
		result.Escalated = graded.Escalated
		result.Diff = grading.DiffTokens(card.FullText, req.SubmittedText)
	}
	review.FinalGrade = review.Grade

	rule, err := w.content.GetMasteryRule(ctx, card.DeckID)
	if err != nil {
		return nil, err
	}

	var state domain.ProgressState
	err = database.RunInTx(ctx, w.db, func(ctx context.Context, tx *sqlx.Tx) error {
		// Lock the progress row before reading it. Two submits for the
		// same (kid, card) must serialize here, or both would schedule
		// from the same stale state and one update would be lost.
		locked, err := w.states.WithTx(tx).GetForUpdate(ctx, req.KidID, req.CardID)
		if err != nil {
			return err
		}
		if locked == nil {
			defaulted := progress.DefaultState(req.KidID, req.CardID, review.TS)
			locked = &defaulted
		}

		quality := scheduler.MapGradeToQuality(review.Grade)
		update := scheduler.Next(locked.IntervalDays, locked.EaseFactor, quality, locked.Streak, review.TS)
		locked.IntervalDays = update.IntervalDays
		locked.EaseFactor = update.EaseFactor
		locked.Streak = update.Streak
		locked.DueDate = update.DueDate
		locked.MasteryStatus = scheduler.ClassifyMastery(update.Streak, update.EaseFactor, update.IntervalDays, rule)
		locked.LastReviewTS = sql.NullTime{Time: review.TS, Valid: true}
		state = *locked

		if err := w.reviews.WithTx(tx).Insert(ctx, &review); err != nil {
			return err
		}
		return w.states.WithTx(tx).Upsert(ctx, *locked)
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("review recorded",
		slog.Int64("kid_id", req.KidID),
		slog.Int64("card_id", req.CardID),
		slog.String("grade", string(review.Grade)),
		slog.Int("interval_days", state.IntervalDays))

	result.Review = review
	result.Progress = state
	return result, nil
}

// Override replaces the final grade of a past review with a parent's
// judgment and rebuilds the card's schedule from the full history, so
// every review after the corrected one lands where it would have had
// the grade been right the first time.
func (w *Workflow) Override(ctx context.Context, reviewID int64, grade domain.Grade) (*domain.ProgressState, error) {
	if err := w.gate.Authorize(ctx, ActionOverride); err != nil {
		return nil, fmt.Errorf("gate.Authorize(%s) > %w", ActionOverride, err)
	}
	if !grade.Valid() {
		return nil, fmt.Errorf("grade %q: %w", grade, domain.ErrInvalidInput)
	}

	target, err := w.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	// The deck lookup skips the visibility filter: a tombstoned card's
	// history still replays under its deck's rule, not the defaults.
	rule := scheduler.DefaultMasteryRule()
	if deckID, err := w.content.GetCardDeckID(ctx, target.CardID); err == nil {
		rule, err = w.content.GetMasteryRule(ctx, deckID)
		if err != nil {
			return nil, err
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var state domain.ProgressState
	err = database.RunInTx(ctx, w.db, func(ctx context.Context, tx *sqlx.Tx) error {
		states := w.states.WithTx(tx)
		reviews := w.reviews.WithTx(tx)

		// Lock the progress row first so concurrent submits for the
		// same card serialize behind the replay.
		if _, err := states.GetForUpdate(ctx, target.KidID, target.CardID); err != nil {
			return err
		}
		if err := reviews.UpdateFinalGrade(ctx, reviewID, grade, domain.GradedByParent); err != nil {
			return err
		}
		history, err := reviews.FindByKidAndCard(ctx, target.KidID, target.CardID)
		if err != nil {
			return err
		}
		state = progress.Replay(target.KidID, target.CardID, history, rule, w.now())
		return states.Upsert(ctx, state)
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("review overridden",
		slog.Int64("review_id", reviewID),
		slog.String("final_grade", string(grade)),
		slog.Int64("kid_id", target.KidID),
		slog.Int64("card_id", target.CardID))

	return &state, nil
}
