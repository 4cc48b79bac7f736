package queue

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"memcoach/internal/domain"
)

// DayLabels index weekdays the way assignments store them, Monday first.
var DayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

const (
	// DefaultReviewSeconds is assumed per card until the kid has a
	// duration history.
	DefaultReviewSeconds = 30

	durationSampleSize = 20
)

// ParseDaysOfWeek parses a stored "0,2,4" style day list into weekday
// indexes, Monday = 0 through Sunday = 6. An empty string means every
// day and parses to nil.
func ParseDaysOfWeek(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var days []int
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || day < 0 || day > 6 {
			return nil, fmt.Errorf("day of week %q: %w", part, domain.ErrInvalidInput)
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Ints(days)
	return days, nil
}

// FormatDaysOfWeek renders weekday indexes as "Mon, Wed, Fri". Nil or
// all seven days renders as "every day".
func FormatDaysOfWeek(days []int) string {
	if len(days) == 0 || len(days) == 7 {
		return "every day"
	}
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)
	labels := make([]string, 0, len(sorted))
	for _, day := range sorted {
		if day < 0 || day > 6 {
			continue
		}
		labels = append(labels, DayLabels[day])
	}
	return strings.Join(labels, ", ")
}

// weekdayIndex converts Go's Sunday-first weekday to Monday = 0.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsActiveOn reports whether an assignment schedules work on the given
// day. Paused assignments resume once paused_until is reached.
func IsActiveOn(a domain.Assignment, today time.Time) (bool, error) {
	if !a.Enabled {
		return false, nil
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if a.PausedUntil.Valid && a.PausedUntil.Time.After(day) {
		return false, nil
	}
	if !a.DaysOfWeek.Valid {
		return true, nil
	}
	days, err := ParseDaysOfWeek(a.DaysOfWeek.String)
	if err != nil {
		return false, err
	}
	if len(days) == 0 {
		return true, nil
	}
	want := weekdayIndex(day)
	for _, d := range days {
		if d == want {
			return true, nil
		}
	}
	return false, nil
}

// applyCaps trims a deck's due list to its per-day budgets, keeping the
// due order, and reports how many new and review cards survived. A null
// cap is unlimited; a zero cap admits nothing of that kind. Cards never
// seen before count against the new cap, everything else against the
// review cap.
func applyCaps(cards []DueCard, a domain.Assignment) (kept []DueCard, newKept, reviewKept int) {
	newLeft := capValue(a.NewCap)
	reviewLeft := capValue(a.ReviewCap)

	kept = make([]DueCard, 0, len(cards))
	for _, card := range cards {
		budget, count := &reviewLeft, &reviewKept
		if card.MasteryStatus == domain.MasteryNew && card.Streak == 0 {
			budget, count = &newLeft, &newKept
		}
		if *budget == 0 {
			continue
		}
		if *budget > 0 {
			*budget--
		}
		*count++
		kept = append(kept, card)
	}
	return kept, newKept, reviewKept
}

// capValue maps a nullable cap to a countdown budget, -1 for unlimited.
func capValue(n sql.NullInt64) int {
	if !n.Valid {
		return -1
	}
	return int(n.Int64)
}

// AssignmentLister lists a kid's deck assignments.
type AssignmentLister interface {
	ListAssignments(ctx context.Context, kidID int64) ([]domain.Assignment, error)
}

// CardSelector returns one deck's due candidates for a kid and day.
type CardSelector interface {
	SelectDue(ctx context.Context, kidID, deckID int64, today time.Time, opts SelectOptions) ([]DueCard, error)
}

// DurationSource supplies recent review durations for time estimates.
type DurationSource interface {
	RecentDurations(ctx context.Context, kidID int64, limit int) ([]int, error)
}

// DeckSummary describes one assignment's contribution to the day. Every
// assignment yields a summary; inactive ones carry zero counts so the
// display can still show the deck and why it rests.
type DeckSummary struct {
	DeckID      int64
	DeckName    string
	Schedule    string
	Active      bool
	NewCount    int
	ReviewCount int
	DueCount    int
	Capped      int
}

// TodayQueue is the kid's merged review plan for one day.
type TodayQueue struct {
	KidID            int64
	Date             time.Time
	Cards            []DueCard
	Decks            []DeckSummary
	EstimatedSeconds int
}

// Assembler builds the daily queue from assignments, due selection and
// the kid's pacing history.
type Assembler struct {
	assignments AssignmentLister
	selector    CardSelector
	durations   DurationSource
	logger      *slog.Logger
}

// NewAssembler creates a new Assembler.
func NewAssembler(assignments AssignmentLister, selector CardSelector, durations DurationSource, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		assignments: assignments,
		selector:    selector,
		durations:   durations,
		logger:      logger,
	}
}

// BuildTodayQueue assembles the day's queue for a kid. Every assignment
// yields a summary; only active ones contribute cards. Per-deck lists
// are capped, then merged into one list ordered by (due date, deck
// name, card id) so overdue work across all decks surfaces first.
func (a *Assembler) BuildTodayQueue(ctx context.Context, kidID int64, today time.Time, opts SelectOptions) (*TodayQueue, error) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	assignments, err := a.assignments.ListAssignments(ctx, kidID)
	if err != nil {
		return nil, fmt.Errorf("assignments.ListAssignments(%d) > %w", kidID, err)
	}

	queue := &TodayQueue{KidID: kidID, Date: day}
	for _, assignment := range assignments {
		schedule := "every day"
		if assignment.DaysOfWeek.Valid {
			if days, err := ParseDaysOfWeek(assignment.DaysOfWeek.String); err == nil {
				schedule = FormatDaysOfWeek(days)
			}
		}
		summary := DeckSummary{
			DeckID:   assignment.DeckID,
			DeckName: assignment.DeckName,
			Schedule: schedule,
		}

		active, err := IsActiveOn(assignment, day)
		if err != nil {
			a.logger.Warn("assignment has a bad schedule, treating as inactive",
				slog.Int64("deck_id", assignment.DeckID),
				slog.String("error", err.Error()))
			queue.Decks = append(queue.Decks, summary)
			continue
		}
		summary.Active = active
		if !active {
			queue.Decks = append(queue.Decks, summary)
			continue
		}

		cards, err := a.selector.SelectDue(ctx, kidID, assignment.DeckID, day, opts)
		if err != nil {
			return nil, fmt.Errorf("selector.SelectDue(deck %d) > %w", assignment.DeckID, err)
		}
		capped, newKept, reviewKept := applyCaps(cards, assignment)

		summary.NewCount = newKept
		summary.ReviewCount = reviewKept
		summary.DueCount = len(capped)
		summary.Capped = len(cards) - len(capped)
		queue.Decks = append(queue.Decks, summary)
		queue.Cards = append(queue.Cards, capped...)
	}

	sort.SliceStable(queue.Cards, func(i, j int) bool {
		a, b := queue.Cards[i], queue.Cards[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.DeckName != b.DeckName {
			return a.DeckName < b.DeckName
		}
		return a.ID < b.ID
	})

	queue.EstimatedSeconds, err = a.estimate(ctx, kidID, len(queue.Cards))
	if err != nil {
		return nil, err
	}
	return queue, nil
}

// estimate projects total queue time from the kid's recent pace, or a
// flat per-card default for kids with no recorded durations.
func (a *Assembler) estimate(ctx context.Context, kidID int64, cardCount int) (int, error) {
	if cardCount == 0 {
		return 0, nil
	}
	durations, err := a.durations.RecentDurations(ctx, kidID, durationSampleSize)
	if err != nil {
		return 0, fmt.Errorf("durations.RecentDurations(%d) > %w", kidID, err)
	}
	perCard := DefaultReviewSeconds
	if len(durations) > 0 {
		total := 0
		for _, d := range durations {
			total += d
		}
		perCard = total / len(durations)
		if perCard < 1 {
			perCard = 1
		}
	}
	return cardCount * perCard, nil
}
