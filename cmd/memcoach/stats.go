package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"memcoach/internal/statistics"
)

func newStatsCommand() *cobra.Command {
	var kidID int64

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a kid's progress dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			return app.app.Run(cmd.Context(), func(ctx context.Context) error {
				service := statistics.NewService(app.db)

				stats, err := service.KidStats(ctx, kidID)
				if err != nil {
					return err
				}
				bold := color.New(color.Bold)
				bold.Printf("%s\n", stats.KidName)
				fmt.Printf("reviews: %d total, %.1f%% success, best streak %d\n",
					stats.TotalReviews, stats.SuccessRate, stats.MaxStreak)
				fmt.Printf("grades: %d perfect / %d good / %d fail\n",
					stats.Grades.Perfect, stats.Grades.Good, stats.Grades.Fail)
				for _, deck := range stats.DeckActivity {
					fmt.Printf("  %s: %d reviews\n", deck.DeckName, deck.ReviewCount)
				}

				mastery, err := service.DeckMastery(ctx, kidID)
				if err != nil {
					return err
				}
				if len(mastery) > 0 {
					bold.Println("\nMastery")
					for _, deck := range mastery {
						fmt.Printf("  %s: %.1f%% mastered (%d/%d), %d learning, %d new\n",
							deck.DeckName, deck.Percent, deck.Mastered,
							deck.TotalCards, deck.Learning, deck.NewCount)
					}
				}

				forecast, err := service.DueForecast(ctx, kidID, time.Now(), 7)
				if err != nil {
					return err
				}
				bold.Println("\nNext 7 days")
				for _, day := range forecast {
					fmt.Printf("  %s: %d due\n", day.Date.Format("Mon Jan 2"), day.Count)
				}

				weekly, err := service.WeeklyDueForecast(ctx, kidID, time.Now(), 8)
				if err != nil {
					return err
				}
				bold.Println("\nComing weeks")
				for _, week := range weekly {
					fmt.Printf("  week of %s: %d due\n", week.WeekStart.Format("Jan 2"), week.Count)
				}

				missed, err := service.MostMissedTokens(ctx, kidID, 10)
				if err != nil {
					return err
				}
				if len(missed) > 0 {
					bold.Println("\nTrouble words")
					for _, token := range missed {
						fmt.Printf("  %s (%d misses)\n", token.Token, token.Misses)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&kidID, "kid", 0, "kid id")
	_ = cmd.MarkFlagRequired("kid")
	return cmd
}
