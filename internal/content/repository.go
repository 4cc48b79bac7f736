// Package content provides the card/deck/assignment store the scheduler
// core reads from. Visibility is a derived predicate: a card is visible
// only while the card, its deck, and its parent text (if any) are all
// undeleted, so restores never have to repair propagated flags.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"memcoach/internal/domain"
	"memcoach/internal/scheduler"
)

const visibleCardPredicate = `c.deleted_at IS NULL
	AND d.deleted_at IS NULL
	AND (c.text_id IS NULL OR t.deleted_at IS NULL)`

// Repository implements the content store using MySQL.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new content Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetKid returns a kid by id, excluding soft-deleted ones.
func (r *Repository) GetKid(ctx context.Context, kidID int64) (*domain.Kid, error) {
	var kid domain.Kid
	err := r.db.GetContext(ctx, &kid,
		"SELECT * FROM kids WHERE id = ? AND deleted_at IS NULL", kidID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("kid %d: %w", kidID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(kid) > %w", err)
	}
	return &kid, nil
}

// GetDeck returns a deck by id, excluding soft-deleted ones.
func (r *Repository) GetDeck(ctx context.Context, deckID int64) (*domain.Deck, error) {
	var deck domain.Deck
	err := r.db.GetContext(ctx, &deck,
		"SELECT * FROM decks WHERE id = ? AND deleted_at IS NULL", deckID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deck %d: %w", deckID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(deck) > %w", err)
	}
	return &deck, nil
}

// CardWithDeck is a visible card joined with its deck's review mode.
type CardWithDeck struct {
	domain.Card
	DeckName   string            `db:"deck_name"`
	ReviewMode domain.ReviewMode `db:"review_mode"`
}

// GetCard returns a visible card with its deck's review mode.
func (r *Repository) GetCard(ctx context.Context, cardID int64) (*CardWithDeck, error) {
	var card CardWithDeck
	err := r.db.GetContext(ctx, &card, `
		SELECT c.*, d.name AS deck_name, d.review_mode
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		LEFT JOIN texts t ON t.id = c.text_id
		WHERE c.id = ? AND `+visibleCardPredicate,
		cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %d: %w", cardID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(card) > %w", err)
	}
	return &card, nil
}

// GetCardDeckID returns a card's deck id regardless of visibility.
// History corrections on a tombstoned card still need the deck's
// mastery rule, not the system defaults.
func (r *Repository) GetCardDeckID(ctx context.Context, cardID int64) (int64, error) {
	var deckID int64
	err := r.db.GetContext(ctx, &deckID,
		"SELECT deck_id FROM cards WHERE id = ?", cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("card %d: %w", cardID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("db.GetContext(card deck id) > %w", err)
	}
	return deckID, nil
}

// GetMasteryRule returns the deck's mastery rule, or the system defaults
// when the deck has none.
func (r *Repository) GetMasteryRule(ctx context.Context, deckID int64) (scheduler.MasteryRule, error) {
	var rule scheduler.MasteryRule
	err := r.db.GetContext(ctx, &rule, `
		SELECT consecutive_grades, min_ease_factor, min_interval_days
		FROM deck_mastery_rules
		WHERE deck_id = ?`,
		deckID)
	if errors.Is(err, sql.ErrNoRows) {
		return scheduler.DefaultMasteryRule(), nil
	}
	if err != nil {
		return scheduler.MasteryRule{}, fmt.Errorf("db.GetContext(deck_mastery_rules) > %w", err)
	}
	return rule, nil
}

// ListAssignments returns a kid's assignments with deck names, skipping
// assignments whose deck has been soft-deleted.
func (r *Repository) ListAssignments(ctx context.Context, kidID int64) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	err := r.db.SelectContext(ctx, &assignments, `
		SELECT a.kid_id, a.deck_id, a.enabled, a.days_of_week,
			a.new_cap, a.review_cap, a.paused_until,
			d.name AS deck_name
		FROM assignments a
		JOIN decks d ON d.id = a.deck_id
		WHERE a.kid_id = ? AND d.deleted_at IS NULL
		ORDER BY d.name`,
		kidID)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(assignments) > %w", err)
	}
	return assignments, nil
}

// SoftDeleteCard tombstones a card; it disappears from queues but stays
// recoverable.
func (r *Repository) SoftDeleteCard(ctx context.Context, cardID int64, now time.Time) error {
	return r.setDeletedAt(ctx, "cards", cardID, sql.NullTime{Time: now, Valid: true})
}

// RestoreCard clears a card's tombstone.
func (r *Repository) RestoreCard(ctx context.Context, cardID int64) error {
	return r.setDeletedAt(ctx, "cards", cardID, sql.NullTime{})
}

// SoftDeleteDeck tombstones a deck, hiding every card in it without
// touching the cards themselves.
func (r *Repository) SoftDeleteDeck(ctx context.Context, deckID int64, now time.Time) error {
	return r.setDeletedAt(ctx, "decks", deckID, sql.NullTime{Time: now, Valid: true})
}

// RestoreDeck clears a deck's tombstone.
func (r *Repository) RestoreDeck(ctx context.Context, deckID int64) error {
	return r.setDeletedAt(ctx, "decks", deckID, sql.NullTime{})
}

func (r *Repository) setDeletedAt(ctx context.Context, table string, id int64, deletedAt sql.NullTime) error {
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET deleted_at = ? WHERE id = ?", table), deletedAt, id)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update %s.deleted_at) > %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", strings.TrimSuffix(table, "s"), id, domain.ErrNotFound)
	}
	return nil
}

// UpsertTags creates any missing tags and returns ids for all names, in
// input order.
func (r *Repository) UpsertTags(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	for _, name := range names {
		if _, err := r.db.ExecContext(ctx,
			"INSERT IGNORE INTO tags (name) VALUES (?)", name); err != nil {
			return nil, fmt.Errorf("db.ExecContext(insert tag) > %w", err)
		}
	}

	query, args, err := sqlx.In("SELECT id, name FROM tags WHERE name IN (?)", names)
	if err != nil {
		return nil, fmt.Errorf("sqlx.In(tags) > %w", err)
	}
	var rows []struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(tags) > %w", err)
	}

	idsByName := make(map[string]int64, len(rows))
	for _, row := range rows {
		idsByName[row.Name] = row.ID
	}
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		if id, ok := idsByName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SetCardTags replaces a card's tag set.
func (r *Repository) SetCardTags(ctx context.Context, cardID int64, names []string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM card_tags WHERE card_id = ?", cardID); err != nil {
		return fmt.Errorf("db.ExecContext(delete card_tags) > %w", err)
	}
	ids, err := r.UpsertTags(ctx, names)
	if err != nil {
		return err
	}
	for _, tagID := range ids {
		if _, err := r.db.ExecContext(ctx,
			"INSERT IGNORE INTO card_tags (card_id, tag_id) VALUES (?, ?)", cardID, tagID); err != nil {
			return fmt.Errorf("db.ExecContext(insert card_tag) > %w", err)
		}
	}
	return nil
}

// SearchFilter narrows a card search. Tags use AND semantics: a card
// must carry every listed tag.
type SearchFilter struct {
	Query  string
	DeckID *int64
	Tags   []string
	Limit  int
}

// SearchResult is one row of a card search.
type SearchResult struct {
	ID       int64          `db:"id"`
	DeckID   int64          `db:"deck_id"`
	DeckName string         `db:"deck_name"`
	Prompt   string         `db:"prompt"`
	FullText string         `db:"full_text"`
	TagList  sql.NullString `db:"tag_list"`
}

// Tags returns the result's tag names.
func (s SearchResult) Tags() []string {
	if !s.TagList.Valid || s.TagList.String == "" {
		return nil
	}
	return strings.Split(s.TagList.String, ",")
}

// SearchCards searches visible cards by full text, deck and tags.
func (r *Repository) SearchCards(ctx context.Context, filter SearchFilter) ([]SearchResult, error) {
	filters := []string{visibleCardPredicate}
	var args []interface{}

	if filter.DeckID != nil {
		filters = append(filters, "c.deck_id = ?")
		args = append(args, *filter.DeckID)
	}
	if filter.Query != "" {
		match, ok := NormalizeSearchQuery(filter.Query)
		if !ok {
			return nil, fmt.Errorf("search query %q: %w", filter.Query, domain.ErrInvalidInput)
		}
		filters = append(filters, "MATCH(c.prompt, c.full_text) AGAINST (? IN BOOLEAN MODE)")
		args = append(args, match)
	}
	if len(filter.Tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Tags)), ",")
		filters = append(filters, fmt.Sprintf(`c.id IN (
			SELECT ct.card_id
			FROM card_tags ct
			JOIN tags tg ON tg.id = ct.tag_id
			WHERE tg.name IN (%s)
			GROUP BY ct.card_id
			HAVING COUNT(DISTINCT tg.name) = ?
		)`, placeholders))
		for _, tag := range filter.Tags {
			args = append(args, tag)
		}
		args = append(args, len(filter.Tags))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT c.id, c.deck_id, d.name AS deck_name, c.prompt, c.full_text,
			(SELECT GROUP_CONCAT(tg2.name)
				FROM card_tags ct2
				JOIN tags tg2 ON tg2.id = ct2.tag_id
				WHERE ct2.card_id = c.id) AS tag_list
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		LEFT JOIN texts t ON t.id = c.text_id
		WHERE %s
		ORDER BY c.id
		LIMIT ?`,
		strings.Join(filters, " AND "))

	var results []SearchResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(search cards) > %w", err)
	}
	return results, nil
}
