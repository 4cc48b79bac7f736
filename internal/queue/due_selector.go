// Package queue computes which cards are due for a kid and assembles
// the merged daily queue across deck assignments.
package queue

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"memcoach/internal/content"
	"memcoach/internal/domain"
)

// DueCard is a due candidate joined with the kid's current progress
// state, defaulted when the kid has never reviewed the card.
type DueCard struct {
	ID            int64                `db:"id"`
	DeckID        int64                `db:"deck_id"`
	DeckName      string               `db:"deck_name"`
	ReviewMode    domain.ReviewMode    `db:"review_mode"`
	TextID        sql.NullInt64        `db:"text_id"`
	TextTitle     sql.NullString       `db:"text_title"`
	ChunkIndex    sql.NullInt64        `db:"chunk_index"`
	Position      int                  `db:"position"`
	Prompt        string               `db:"prompt"`
	FullText      string               `db:"full_text"`
	DueDate       time.Time            `db:"due_date"`
	IntervalDays  int                  `db:"interval_days"`
	EaseFactor    float64              `db:"ease_factor"`
	Streak        int                  `db:"streak"`
	MasteryStatus domain.MasteryStatus `db:"mastery_status"`
	TagList       sql.NullString       `db:"tag_list"`
}

// Tags returns the card's tag names.
func (c DueCard) Tags() []string {
	if !c.TagList.Valid || c.TagList.String == "" {
		return nil
	}
	return strings.Split(c.TagList.String, ",")
}

// SelectOptions modify due selection. A nil Rand disables the same-day
// shuffle and falls back to card-id order, which is what tests rely on.
type SelectOptions struct {
	GroupBySourceText bool
	SearchQuery       string
	Tags              []string
	Rand              *rand.Rand
}

// DueSelector finds the cards of one deck whose schedule says "due" for
// a given kid.
type DueSelector struct {
	db *sqlx.DB
}

// NewDueSelector creates a new DueSelector.
func NewDueSelector(db *sqlx.DB) *DueSelector {
	return &DueSelector{db: db}
}

// SelectDue returns the due candidates for (kid, deck) on the given day.
//
// Excluded: tombstoned cards, decks and parent texts (the visibility
// predicate is derived at query time, never propagated); cards the kid
// already reviewed today (one attempt per card per calendar day); cards
// due in the future. Never-reviewed cards count as due today.
func (s *DueSelector) SelectDue(ctx context.Context, kidID, deckID int64, today time.Time, opts SelectOptions) ([]DueCard, error) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	filters := []string{
		"c.deck_id = ?",
		"COALESCE(cp.due_date, ?) <= ?",
		`c.deleted_at IS NULL`,
		`d.deleted_at IS NULL`,
		`(c.text_id IS NULL OR t.deleted_at IS NULL)`,
		`NOT EXISTS (
			SELECT 1 FROM reviews r
			WHERE r.card_id = c.id AND r.kid_id = ? AND DATE(r.ts) = ?
		)`,
	}
	args := []interface{}{day, kidID, deckID, day, day, kidID, day}

	if opts.SearchQuery != "" {
		match, ok := content.NormalizeSearchQuery(opts.SearchQuery)
		if !ok {
			return nil, fmt.Errorf("search query %q: %w", opts.SearchQuery, domain.ErrInvalidInput)
		}
		filters = append(filters, "MATCH(c.prompt, c.full_text) AGAINST (? IN BOOLEAN MODE)")
		args = append(args, match)
	}
	if len(opts.Tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(opts.Tags)), ",")
		filters = append(filters, fmt.Sprintf(`c.id IN (
			SELECT ct.card_id
			FROM card_tags ct
			JOIN tags tg ON tg.id = ct.tag_id
			WHERE tg.name IN (%s)
			GROUP BY ct.card_id
			HAVING COUNT(DISTINCT tg.name) = ?
		)`, placeholders))
		for _, tag := range opts.Tags {
			args = append(args, tag)
		}
		args = append(args, len(opts.Tags))
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.deck_id, d.name AS deck_name, d.review_mode,
			c.text_id, t.title AS text_title, c.chunk_index, c.position,
			c.prompt, c.full_text,
			COALESCE(cp.due_date, ?) AS due_date,
			COALESCE(cp.interval_days, 1) AS interval_days,
			COALESCE(cp.ease_factor, 2.5) AS ease_factor,
			COALESCE(cp.streak, 0) AS streak,
			COALESCE(cp.mastery_status, 'new') AS mastery_status,
			(SELECT GROUP_CONCAT(tg2.name)
				FROM card_tags ct2
				JOIN tags tg2 ON tg2.id = ct2.tag_id
				WHERE ct2.card_id = c.id) AS tag_list
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		LEFT JOIN texts t ON t.id = c.text_id
		LEFT JOIN card_progress cp ON cp.card_id = c.id AND cp.kid_id = ?
		WHERE %s
		ORDER BY due_date ASC, c.id ASC`,
		strings.Join(filters, " AND "))

	var cards []DueCard
	if err := s.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(due cards) > %w", err)
	}

	orderCards(cards, opts)
	return cards, nil
}

// orderCards finalizes the ordering after the due-ascending base sort.
// Grouping keeps chunks of the same source text contiguous in chunk
// order; otherwise same-day cards are shuffled so the kid cannot learn
// the list order instead of the text.
func orderCards(cards []DueCard, opts SelectOptions) {
	if opts.GroupBySourceText {
		sort.SliceStable(cards, func(i, j int) bool {
			a, b := cards[i], cards[j]
			if !a.DueDate.Equal(b.DueDate) {
				return a.DueDate.Before(b.DueDate)
			}
			if a.TextID.Valid != b.TextID.Valid {
				return a.TextID.Valid
			}
			if a.TextID.Valid && a.TextID.Int64 != b.TextID.Int64 {
				return a.TextID.Int64 < b.TextID.Int64
			}
			if a.ChunkIndex.Int64 != b.ChunkIndex.Int64 {
				return a.ChunkIndex.Int64 < b.ChunkIndex.Int64
			}
			return a.ID < b.ID
		})
		return
	}
	if opts.Rand == nil {
		return // already (due_date, id) ascending from the query
	}
	for start := 0; start < len(cards); {
		end := start + 1
		for end < len(cards) && cards[end].DueDate.Equal(cards[start].DueDate) {
			end++
		}
		run := cards[start:end]
		opts.Rand.Shuffle(len(run), func(i, j int) {
			run[i], run[j] = run[j], run[i]
		})
		start = end
	}
}
