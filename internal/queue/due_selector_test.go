package queue

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memcoach/internal/domain"
)

func newSelectorDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

var dueColumns = []string{
	"id", "deck_id", "deck_name", "review_mode", "text_id", "text_title",
	"chunk_index", "position", "prompt", "full_text", "due_date",
	"interval_days", "ease_factor", "streak", "mastery_status", "tag_list",
}

func TestDueSelector_SelectDueDefaultsUnreviewedCards(t *testing.T) {
	db, mock := newSelectorDB(t)
	selector := NewDueSelector(db)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(dueColumns).
		AddRow(7, 10, "Poems", "free_recall", nil, nil, nil, 1,
			"Psalm 23", "The Lord is my shepherd", day, 1, 2.5, 0, "new", nil)
	mock.ExpectQuery("SELECT c.id, c.deck_id, d.name AS deck_name").
		WillReturnRows(rows)

	got, err := selector.SelectDue(context.Background(), 1, 10, day.Add(8*time.Hour), SelectOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
	assert.Equal(t, 1, got[0].IntervalDays)
	assert.Equal(t, 2.5, got[0].EaseFactor)
	assert.Equal(t, domain.MasteryNew, got[0].MasteryStatus)
	assert.Nil(t, got[0].Tags())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDueSelector_RejectsUnusableSearchQuery(t *testing.T) {
	db, _ := newSelectorDB(t)
	selector := NewDueSelector(db)

	_, err := selector.SelectDue(context.Background(), 1, 10, time.Now(),
		SelectOptions{SearchQuery: "+-*"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDueCard_TagsSplitsList(t *testing.T) {
	card := DueCard{TagList: sql.NullString{String: "bible,short", Valid: true}}
	assert.Equal(t, []string{"bible", "short"}, card.Tags())
}

func groupedCard(id, textID, chunk int64, due time.Time) DueCard {
	return DueCard{
		ID:         id,
		TextID:     sql.NullInt64{Int64: textID, Valid: textID != 0},
		ChunkIndex: sql.NullInt64{Int64: chunk, Valid: textID != 0},
		DueDate:    due,
	}
}

func TestOrderCards_GroupBySourceText(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cards := []DueCard{
		groupedCard(5, 0, 0, day),
		groupedCard(4, 2, 0, day),
		groupedCard(3, 1, 1, day),
		groupedCard(2, 1, 0, day),
		groupedCard(1, 1, 2, day.AddDate(0, 0, 1)),
	}

	orderCards(cards, SelectOptions{GroupBySourceText: true})

	ids := make([]int64, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	// Same-day text chunks stay contiguous in chunk order, standalone
	// cards come after, later due dates last.
	assert.Equal(t, []int64{2, 3, 4, 5, 1}, ids)
}

func TestOrderCards_NilRandKeepsIDOrder(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cards := []DueCard{
		groupedCard(1, 0, 0, day),
		groupedCard(2, 0, 0, day),
		groupedCard(3, 0, 0, day),
	}
	orderCards(cards, SelectOptions{})
	assert.Equal(t, int64(1), cards[0].ID)
	assert.Equal(t, int64(2), cards[1].ID)
	assert.Equal(t, int64(3), cards[2].ID)
}

func TestOrderCards_ShuffleNeverCrossesDueDays(t *testing.T) {
	early := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 0, 1)
	cards := []DueCard{
		groupedCard(1, 0, 0, early),
		groupedCard(2, 0, 0, early),
		groupedCard(3, 0, 0, late),
		groupedCard(4, 0, 0, late),
	}

	orderCards(cards, SelectOptions{Rand: rand.New(rand.NewSource(11))})

	assert.True(t, cards[0].DueDate.Equal(early))
	assert.True(t, cards[1].DueDate.Equal(early))
	assert.True(t, cards[2].DueDate.Equal(late))
	assert.True(t, cards[3].DueDate.Equal(late))
}
