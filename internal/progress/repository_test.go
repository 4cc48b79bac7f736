package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memcoach/internal/domain"
)

var progressColumns = []string{
	"kid_id", "card_id", "interval_days", "due_date", "ease_factor",
	"streak", "mastery_status", "last_review_ts",
}

func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestRepository_GetForUpdate(t *testing.T) {
	due := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      *domain.ProgressState
		wantErr   bool
	}{
		{
			name: "existing state",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(progressColumns).
					AddRow(1, 7, 6, due, 2.6, 1, "learning", due.AddDate(0, 0, -6))
				mock.ExpectQuery("SELECT \\* FROM card_progress WHERE kid_id = \\? AND card_id = \\? FOR UPDATE").
					WithArgs(int64(1), int64(7)).
					WillReturnRows(rows)
			},
			want: &domain.ProgressState{
				KidID: 1, CardID: 7, IntervalDays: 6, DueDate: due,
				EaseFactor: 2.6, Streak: 1, MasteryStatus: domain.MasteryLearning,
				LastReviewTS: sql.NullTime{Time: due.AddDate(0, 0, -6), Valid: true},
			},
		},
		{
			name: "absent state returns nil without error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM card_progress WHERE kid_id = \\? AND card_id = \\? FOR UPDATE").
					WithArgs(int64(1), int64(7)).
					WillReturnRows(sqlmock.NewRows(progressColumns))
			},
			want: nil,
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM card_progress WHERE kid_id = \\? AND card_id = \\? FOR UPDATE").
					WithArgs(int64(1), int64(7)).
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newTestDB(t)
			mock.ExpectBegin()
			tt.setupMock(mock)
			mock.ExpectRollback()

			tx, err := db.Beginx()
			require.NoError(t, err)
			t.Cleanup(func() { _ = tx.Rollback() })
			repo := NewRepository(db).WithTx(tx)

			got, err := repo.GetForUpdate(context.Background(), 1, 7)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepository_Upsert(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewRepository(db)

	mock.ExpectExec("INSERT INTO card_progress").
		WillReturnResult(sqlmock.NewResult(1, 1))

	state := DefaultState(1, 7, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Upsert(context.Background(), state))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetForUpdateLocksRow(t *testing.T) {
	db, mock := newTestDB(t)

	mock.ExpectBegin()
	due := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(progressColumns).
		AddRow(1, 7, 6, due, 2.6, 1, "learning", nil)
	mock.ExpectQuery("SELECT \\* FROM card_progress WHERE kid_id = \\? AND card_id = \\? FOR UPDATE").
		WithArgs(int64(1), int64(7)).
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	repo := NewRepository(db).WithTx(tx)

	got, err := repo.GetForUpdate(context.Background(), 1, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 6, got.IntervalDays)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Insert(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(42, 1))

	review := domain.Review{
		CardID:     7,
		KidID:      1,
		TS:         time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Grade:      domain.GradeGood,
		FinalGrade: domain.GradeGood,
		GradedBy:   domain.GradedByAuto,
		ReviewMode: domain.ReviewModeFreeRecall,
		HintMode:   domain.HintModeNone,
		UserText:   "the lord is my shepherd",
	}
	require.NoError(t, repo.Insert(context.Background(), &review))
	assert.Equal(t, int64(42), review.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Get(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectQuery("SELECT \\* FROM reviews WHERE id = \\?").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), 42)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReviewRepository_UpdateFinalGrade(t *testing.T) {
	t.Run("existing review", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewReviewRepository(db)
		mock.ExpectExec("UPDATE reviews SET final_grade = \\?, graded_by = \\? WHERE id = \\?").
			WithArgs(domain.GradePerfect, domain.GradedByParent, int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateFinalGrade(context.Background(), 42, domain.GradePerfect, domain.GradedByParent)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown review", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewReviewRepository(db)
		mock.ExpectExec("UPDATE reviews SET final_grade = \\?, graded_by = \\? WHERE id = \\?").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateFinalGrade(context.Background(), 42, domain.GradePerfect, domain.GradedByParent)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestReviewRepository_RecentDurations(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewReviewRepository(db)

	rows := sqlmock.NewRows([]string{"duration_seconds"}).
		AddRow(25).AddRow(40).AddRow(31)
	mock.ExpectQuery("SELECT duration_seconds FROM reviews").
		WithArgs(int64(1), 20).
		WillReturnRows(rows)

	got, err := repo.RecentDurations(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []int{25, 40, 31}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
