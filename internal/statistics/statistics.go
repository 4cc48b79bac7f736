// Package statistics aggregates review history into the numbers shown
// on the progress dashboard.
package statistics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"memcoach/internal/domain"
	"memcoach/internal/grading"
	"memcoach/internal/scheduler"
)

// GradeCounts tallies reviews by their effective grade.
type GradeCounts struct {
	Perfect int
	Good    int
	Fail    int
}

// Total is the number of counted reviews.
func (g GradeCounts) Total() int {
	return g.Perfect + g.Good + g.Fail
}

// SuccessRate is the share of non-failing reviews as a percentage with
// one decimal, 0 for an empty history.
func (g GradeCounts) SuccessRate() float64 {
	total := g.Total()
	if total == 0 {
		return 0
	}
	rate := float64(g.Perfect+g.Good) / float64(total) * 100
	return math.Round(rate*10) / 10
}

// DeckActivity is one deck's share of a kid's review history.
type DeckActivity struct {
	DeckName    string `db:"deck_name"`
	ReviewCount int    `db:"review_count"`
}

// DeckMastery is one deck's mastery progress for a kid.
type DeckMastery struct {
	DeckID     int64
	DeckName   string
	NewCount   int
	Learning   int
	Mastered   int
	TotalCards int
	Percent    float64
}

// DueForecastDay is the number of cards falling due on one day.
type DueForecastDay struct {
	Date  time.Time
	Count int
}

// MissedToken is a reference token with how often recent attempts
// dropped or mangled it.
type MissedToken struct {
	Token  string
	Misses int
}

// KidStats is the dashboard summary for one kid.
type KidStats struct {
	KidName      string
	Grades       GradeCounts
	TotalReviews int
	SuccessRate  float64
	DeckActivity []DeckActivity
	MaxStreak    int
}

// Service computes statistics over the review history.
type Service struct {
	db *sqlx.DB
}

// NewService creates a statistics Service.
func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// KidStats builds the dashboard summary for one kid. Overridden reviews
// count under their final grade.
func (s *Service) KidStats(ctx context.Context, kidID int64) (*KidStats, error) {
	var kidName string
	err := s.db.GetContext(ctx, &kidName,
		"SELECT name FROM kids WHERE id = ? AND deleted_at IS NULL", kidID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("kid %d: %w", kidID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(kid name) > %w", err)
	}

	var gradeRows []struct {
		Grade domain.Grade `db:"final_grade"`
		Count int          `db:"count"`
	}
	err = s.db.SelectContext(ctx, &gradeRows, `
		SELECT final_grade, COUNT(*) AS count
		FROM reviews
		WHERE kid_id = ?
		GROUP BY final_grade`,
		kidID)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(grade counts) > %w", err)
	}
	var grades GradeCounts
	for _, row := range gradeRows {
		switch row.Grade {
		case domain.GradePerfect:
			grades.Perfect = row.Count
		case domain.GradeGood:
			grades.Good = row.Count
		case domain.GradeFail:
			grades.Fail = row.Count
		}
	}

	var activity []DeckActivity
	err = s.db.SelectContext(ctx, &activity, `
		SELECT d.name AS deck_name, COUNT(r.id) AS review_count
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		JOIN decks d ON d.id = c.deck_id
		WHERE r.kid_id = ?
		GROUP BY d.id, d.name
		ORDER BY review_count DESC, d.name`,
		kidID)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(deck activity) > %w", err)
	}

	var maxStreak int
	err = s.db.GetContext(ctx, &maxStreak, `
		SELECT COALESCE(MAX(streak), 0)
		FROM card_progress
		WHERE kid_id = ?`,
		kidID)
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(max streak) > %w", err)
	}

	return &KidStats{
		KidName:      kidName,
		Grades:       grades,
		TotalReviews: grades.Total(),
		SuccessRate:  grades.SuccessRate(),
		DeckActivity: activity,
		MaxStreak:    maxStreak,
	}, nil
}

// DeckMastery summarizes a kid's mastery per assigned deck.
func (s *Service) DeckMastery(ctx context.Context, kidID int64) ([]DeckMastery, error) {
	var rows []struct {
		DeckID   int64                `db:"deck_id"`
		DeckName string               `db:"deck_name"`
		Status   domain.MasteryStatus `db:"mastery_status"`
		Count    int                  `db:"count"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.deck_id, d.name AS deck_name,
			COALESCE(cp.mastery_status, 'new') AS mastery_status,
			COUNT(*) AS count
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		JOIN assignments a ON a.deck_id = c.deck_id AND a.kid_id = ?
		LEFT JOIN texts t ON t.id = c.text_id
		LEFT JOIN card_progress cp ON cp.card_id = c.id AND cp.kid_id = ?
		WHERE c.deleted_at IS NULL
			AND d.deleted_at IS NULL
			AND (c.text_id IS NULL OR t.deleted_at IS NULL)
		GROUP BY c.deck_id, d.name, COALESCE(cp.mastery_status, 'new')
		ORDER BY d.name`,
		kidID, kidID)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(deck mastery) > %w", err)
	}

	byDeck := map[int64]*DeckMastery{}
	var order []int64
	for _, row := range rows {
		deck := byDeck[row.DeckID]
		if deck == nil {
			deck = &DeckMastery{DeckID: row.DeckID, DeckName: row.DeckName}
			byDeck[row.DeckID] = deck
			order = append(order, row.DeckID)
		}
		switch row.Status {
		case domain.MasteryMastered:
			deck.Mastered += row.Count
		case domain.MasteryLearning:
			deck.Learning += row.Count
		default:
			deck.NewCount += row.Count
		}
	}

	result := make([]DeckMastery, 0, len(order))
	for _, deckID := range order {
		deck := byDeck[deckID]
		deck.TotalCards = deck.NewCount + deck.Learning + deck.Mastered
		deck.Percent = scheduler.MasteryPercent(deck.Mastered, deck.TotalCards)
		result = append(result, *deck)
	}
	return result, nil
}

// DueForecast counts cards falling due on each of the next days days,
// starting today. Overdue cards pile onto the first day.
func (s *Service) DueForecast(ctx context.Context, kidID int64, today time.Time, days int) ([]DueForecastDay, error) {
	if days <= 0 {
		days = 7
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	var dueDates []time.Time
	err := s.db.SelectContext(ctx, &dueDates, `
		SELECT cp.due_date
		FROM card_progress cp
		JOIN cards c ON c.id = cp.card_id
		JOIN decks d ON d.id = c.deck_id
		LEFT JOIN texts t ON t.id = c.text_id
		WHERE cp.kid_id = ?
			AND cp.due_date < ?
			AND c.deleted_at IS NULL
			AND d.deleted_at IS NULL
			AND (c.text_id IS NULL OR t.deleted_at IS NULL)`,
		kidID, day.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(due forecast) > %w", err)
	}

	forecast := make([]DueForecastDay, days)
	for i := range forecast {
		forecast[i].Date = day.AddDate(0, 0, i)
	}
	for _, due := range dueDates {
		offset := daysBetween(day, due)
		if offset < 0 {
			offset = 0
		}
		if offset < days {
			forecast[offset].Count++
		}
	}
	return forecast, nil
}

// daysBetween counts calendar days from a to b, ignoring clock time and
// location, so DST-shortened days still count as whole days.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// DueForecastWeek is the number of cards falling due in one week.
type DueForecastWeek struct {
	WeekStart time.Time
	Count     int
}

// WeeklyDueForecast buckets upcoming due cards into Monday-anchored
// weeks, starting with the current week. Cards already past due are
// excluded; they belong to today's queue, not the plan.
func (s *Service) WeeklyDueForecast(ctx context.Context, kidID int64, today time.Time, weeks int) ([]DueForecastWeek, error) {
	if weeks <= 0 {
		weeks = 8
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	weekStart := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))

	var dueDates []time.Time
	err := s.db.SelectContext(ctx, &dueDates, `
		SELECT cp.due_date
		FROM card_progress cp
		JOIN cards c ON c.id = cp.card_id
		JOIN decks d ON d.id = c.deck_id
		LEFT JOIN texts t ON t.id = c.text_id
		WHERE cp.kid_id = ?
			AND cp.due_date >= ?
			AND cp.due_date < ?
			AND c.deleted_at IS NULL
			AND d.deleted_at IS NULL
			AND (c.text_id IS NULL OR t.deleted_at IS NULL)`,
		kidID, day, weekStart.AddDate(0, 0, 7*weeks))
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(weekly due forecast) > %w", err)
	}

	forecast := make([]DueForecastWeek, weeks)
	for i := range forecast {
		forecast[i].WeekStart = weekStart.AddDate(0, 0, 7*i)
	}
	for _, due := range dueDates {
		index := daysBetween(weekStart, due) / 7
		if index >= 0 && index < weeks {
			forecast[index].Count++
		}
	}
	return forecast, nil
}

// attempt pairs a reference text with what the kid actually typed.
type attempt struct {
	FullText string `db:"full_text"`
	UserText string `db:"user_text"`
}

// MostMissedTokens finds the reference words a kid most often drops or
// gets wrong, over the most recent imperfect typed attempts.
func (s *Service) MostMissedTokens(ctx context.Context, kidID int64, limit int) ([]MissedToken, error) {
	if limit <= 0 {
		limit = 10
	}
	var attempts []attempt
	err := s.db.SelectContext(ctx, &attempts, `
		SELECT c.full_text, r.user_text
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		WHERE r.kid_id = ?
			AND r.final_grade != 'perfect'
			AND r.user_text != ''
		ORDER BY r.ts DESC
		LIMIT 100`,
		kidID)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(imperfect attempts) > %w", err)
	}
	return tallyMissedTokens(attempts, limit), nil
}

// tallyMissedTokens diffs each attempt and counts the reference tokens
// marked missing or substituted, most missed first, ties by token.
func tallyMissedTokens(attempts []attempt, limit int) []MissedToken {
	misses := map[string]int{}
	for _, a := range attempts {
		diff := grading.DiffTokens(a.FullText, a.UserText)
		for _, token := range diff.Expected {
			if token.Status == grading.TokenMissing || token.Status == grading.TokenSubstitution {
				misses[strings.ToLower(token.Token)]++
			}
		}
	}

	tokens := make([]MissedToken, 0, len(misses))
	for token, count := range misses {
		tokens = append(tokens, MissedToken{Token: token, Misses: count})
	}
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Misses != tokens[j].Misses {
			return tokens[i].Misses > tokens[j].Misses
		}
		return tokens[i].Token < tokens[j].Token
	})
	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens
}
