package content

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memcoach/internal/domain"
	"memcoach/internal/scheduler"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "mysql")), mock
}

func TestRepository_GetCard(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "visible card",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "deck_id", "text_id", "chunk_index", "position",
					"prompt", "full_text", "deleted_at", "deck_name", "review_mode",
				}).AddRow(7, 2, nil, nil, 1, "Psalm 23:1", "The Lord is my shepherd", nil, "Psalms", "free_recall")
				mock.ExpectQuery("SELECT c\\.\\*, d\\.name AS deck_name, d\\.review_mode").
					WithArgs(int64(7)).
					WillReturnRows(rows)
			},
		},
		{
			name: "soft-deleted card is not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT c\\.\\*, d\\.name AS deck_name, d\\.review_mode").
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepository(t)
			tt.setupMock(mock)

			got, err := repo.GetCard(context.Background(), 7)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), got.ID)
			assert.Equal(t, "Psalms", got.DeckName)
			assert.Equal(t, domain.ReviewModeFreeRecall, got.ReviewMode)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_GetCardDeckID(t *testing.T) {
	t.Run("tombstoned card still resolves its deck", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery("SELECT deck_id FROM cards").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"deck_id"}).AddRow(2))

		got, err := repo.GetCardDeckID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing card is not found", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery("SELECT deck_id FROM cards").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"deck_id"}))

		_, err := repo.GetCardDeckID(context.Background(), 7)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRepository_GetMasteryRule(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      scheduler.MasteryRule
	}{
		{
			name: "deck with its own rule",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"consecutive_grades", "min_ease_factor", "min_interval_days"}).
					AddRow(5, 2.7, 21)
				mock.ExpectQuery("SELECT consecutive_grades, min_ease_factor, min_interval_days").
					WithArgs(int64(2)).
					WillReturnRows(rows)
			},
			want: scheduler.MasteryRule{ConsecutiveGrades: 5, MinEaseFactor: 2.7, MinIntervalDays: 21},
		},
		{
			name: "missing rule falls back to defaults",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT consecutive_grades, min_ease_factor, min_interval_days").
					WithArgs(int64(2)).
					WillReturnRows(sqlmock.NewRows([]string{"consecutive_grades"}))
			},
			want: scheduler.DefaultMasteryRule(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepository(t)
			tt.setupMock(mock)

			got, err := repo.GetMasteryRule(context.Background(), 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ListAssignments(t *testing.T) {
	repo, mock := newTestRepository(t)
	rows := sqlmock.NewRows([]string{
		"kid_id", "deck_id", "enabled", "days_of_week", "new_cap", "review_cap", "paused_until", "deck_name",
	}).
		AddRow(1, 2, true, "1,3,5", 3, nil, nil, "Catechism").
		AddRow(1, 4, false, nil, nil, 10, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), "Psalms")
	mock.ExpectQuery("SELECT a\\.kid_id, a\\.deck_id, a\\.enabled").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	got, err := repo.ListAssignments(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Catechism", got[0].DeckName)
	assert.True(t, got[0].Enabled)
	assert.Equal(t, "1,3,5", got[0].DaysOfWeek.String)
	assert.Equal(t, int64(3), got[0].NewCap.Int64)
	assert.False(t, got[0].ReviewCap.Valid)

	assert.False(t, got[1].Enabled)
	assert.True(t, got[1].PausedUntil.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SoftDeleteCard(t *testing.T) {
	t.Run("existing card", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectExec("UPDATE cards SET deleted_at = \\? WHERE id = \\?").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SoftDeleteCard(context.Background(), 7, time.Now())
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown card", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectExec("UPDATE cards SET deleted_at = \\? WHERE id = \\?").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SoftDeleteCard(context.Background(), 99, time.Now())
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestRepository_SearchCardsInvalidQuery(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SearchCards(context.Background(), SearchFilter{Query: "!!!"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRepository_SearchCardsByTags(t *testing.T) {
	repo, mock := newTestRepository(t)
	rows := sqlmock.NewRows([]string{"id", "deck_id", "deck_name", "prompt", "full_text", "tag_list"}).
		AddRow(7, 2, "Psalms", "Psalm 23:1", "The Lord is my shepherd", "psalms,verses")
	mock.ExpectQuery("SELECT c\\.id, c\\.deck_id, d\\.name AS deck_name").
		WithArgs("psalms", "verses", 2, 100).
		WillReturnRows(rows)

	got, err := repo.SearchCards(context.Background(), SearchFilter{Tags: []string{"psalms", "verses"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"psalms", "verses"}, got[0].Tags())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetKidError(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery("SELECT \\* FROM kids WHERE id = \\? AND deleted_at IS NULL").
		WithArgs(int64(1)).
		WillReturnError(fmt.Errorf("connection refused"))

	_, err := repo.GetKid(context.Background(), 1)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
