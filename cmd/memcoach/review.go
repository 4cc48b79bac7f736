package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"memcoach/internal/domain"
	"memcoach/internal/grading"
	"memcoach/internal/hints"
	"memcoach/internal/review"
)

func newReviewCommand() *cobra.Command {
	var (
		kidID    int64
		deckID   int64
		cardID   int64
		text     string
		quality  int
		hintMode string
		duration int
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Submit one recall attempt for grading",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			return app.app.Run(cmd.Context(), func(ctx context.Context) error {
				result, err := app.newWorkflow().Submit(ctx, review.SubmitRequest{
					KidID:           kidID,
					DeckID:          deckID,
					CardID:          cardID,
					SubmittedText:   text,
					Quality:         quality,
					HintMode:        hints.Normalize(hintMode),
					DurationSeconds: duration,
				})
				if err != nil {
					return err
				}
				printSubmitResult(result)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&kidID, "kid", 0, "kid id")
	cmd.Flags().Int64Var(&deckID, "deck", 0, "deck id")
	cmd.Flags().Int64Var(&cardID, "card", 0, "card id")
	cmd.Flags().StringVar(&text, "text", "", "the typed recall")
	cmd.Flags().IntVar(&quality, "quality", 0, "parent judgment 0-5 for recitation decks")
	cmd.Flags().StringVar(&hintMode, "hints", "none", hintFlagUsage())
	cmd.Flags().IntVar(&duration, "duration", 0, "attempt duration in seconds")
	_ = cmd.MarkFlagRequired("kid")
	_ = cmd.MarkFlagRequired("deck")
	_ = cmd.MarkFlagRequired("card")
	return cmd
}

func printSubmitResult(result *review.SubmitResult) {
	switch result.Review.Grade {
	case domain.GradePerfect:
		color.Green("perfect (similarity %.2f)", result.Similarity)
	case domain.GradeGood:
		color.Yellow("good (similarity %.2f)", result.Similarity)
	default:
		color.Red("fail (similarity %.2f)", result.Similarity)
	}
	if result.Escalated {
		fmt.Println("borderline score was double-checked")
	}
	if len(result.Diff.Expected) > 0 && result.Review.Grade != domain.GradePerfect {
		fmt.Printf("expected: %s\n", renderExpected(result.Diff))
		fmt.Printf("   typed: %s\n", renderActual(result.Diff))
	}
	fmt.Printf("next review in %d day(s), on %s\n",
		result.Progress.IntervalDays,
		result.Progress.DueDate.Format("Mon Jan 2"))
}

func renderExpected(diff grading.TokenDiff) string {
	parts := make([]string, 0, len(diff.Expected))
	for _, token := range diff.Expected {
		switch token.Status {
		case grading.TokenMissing:
			parts = append(parts, color.RedString(token.Token))
		case grading.TokenSubstitution:
			parts = append(parts, color.YellowString(token.Token))
		default:
			parts = append(parts, token.Token)
		}
	}
	return strings.Join(parts, " ")
}

func renderActual(diff grading.TokenDiff) string {
	parts := make([]string, 0, len(diff.Actual))
	for _, token := range diff.Actual {
		switch token.Status {
		case grading.TokenExtra:
			parts = append(parts, color.MagentaString(token.Token))
		case grading.TokenSubstitution:
			parts = append(parts, color.YellowString(token.Token))
		default:
			parts = append(parts, token.Token)
		}
	}
	return strings.Join(parts, " ")
}

func newOverrideCommand() *cobra.Command {
	var (
		reviewID int64
		grade    string
	)

	cmd := &cobra.Command{
		Use:   "override",
		Short: "Correct the final grade of a past review",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			return app.app.Run(cmd.Context(), func(ctx context.Context) error {
				state, err := app.newWorkflow().Override(ctx, reviewID, domain.Grade(grade))
				if err != nil {
					return err
				}
				color.Green("review %d overridden to %s", reviewID, grade)
				fmt.Printf("schedule rebuilt: streak %d, next review on %s (%s)\n",
					state.Streak,
					state.DueDate.Format("Mon Jan 2"),
					state.MasteryStatus)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&reviewID, "review", 0, "review id")
	cmd.Flags().StringVar(&grade, "grade", "", "corrected grade: fail, good or perfect")
	_ = cmd.MarkFlagRequired("review")
	_ = cmd.MarkFlagRequired("grade")
	return cmd
}
