package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"memcoach/internal/content"
	"memcoach/internal/domain"
	"memcoach/internal/hints"
)

func newTodayCommand() *cobra.Command {
	var kidID int64
	var hintMode string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show a kid's review queue for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			return app.app.Run(cmd.Context(), func(ctx context.Context) error {
				kid, err := content.NewRepository(app.db).GetKid(ctx, kidID)
				if err != nil {
					return err
				}

				todayQueue, err := app.newAssembler().BuildTodayQueue(ctx, kidID, time.Now(), app.selectOptions())
				if err != nil {
					return fmt.Errorf("BuildTodayQueue(%d) > %w", kidID, err)
				}

				bold := color.New(color.Bold)
				bold.Printf("Today's queue for %s (%s)\n", kid.Name, todayQueue.Date.Format("Mon Jan 2"))
				for _, deck := range todayQueue.Decks {
					if !deck.Active {
						fmt.Printf("  %s: resting today (%s)\n", deck.DeckName, deck.Schedule)
						continue
					}
					line := fmt.Sprintf("  %s: %d due, %d new and %d review (%s)",
						deck.DeckName, deck.DueCount, deck.NewCount, deck.ReviewCount, deck.Schedule)
					if deck.Capped > 0 {
						line += fmt.Sprintf(", %d held back by daily caps", deck.Capped)
					}
					fmt.Println(line)
				}
				if len(todayQueue.Cards) == 0 {
					color.Green("All done for today!")
					return nil
				}

				fmt.Println()
				mode := hints.Normalize(hintMode)
				for i, card := range todayQueue.Cards {
					overdue := ""
					if card.DueDate.Before(todayQueue.Date) {
						overdue = color.RedString(" (overdue since %s)", card.DueDate.Format("Jan 2"))
					}
					fmt.Printf("%2d. [%s] %s%s\n", i+1, card.DeckName, card.Prompt, overdue)
					switch card.ReviewMode {
					case domain.ReviewModeCloze:
						color.Cyan("    %s", hints.BuildCloze(card.FullText))
					case domain.ReviewModeFirstLetters:
						color.Cyan("    %s", hints.Build(card.FullText, domain.HintModeFirstLetters))
					default:
						if hint := hints.Build(card.FullText, mode); hint != "" {
							color.Cyan("    hint: %s", hint)
						}
					}
				}
				fmt.Printf("\nEstimated time: about %d minutes\n",
					(todayQueue.EstimatedSeconds+59)/60)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&kidID, "kid", 0, "kid id")
	cmd.Flags().StringVar(&hintMode, "hints", "none", hintFlagUsage())
	_ = cmd.MarkFlagRequired("kid")
	return cmd
}

// hintFlagUsage builds the --hints help text from the selectable modes.
func hintFlagUsage() string {
	options := hints.Options()
	parts := make([]string, 0, len(options))
	for _, option := range options {
		parts = append(parts, fmt.Sprintf("%s (%s)", option.Mode, option.Label))
	}
	return "hint mode: " + strings.Join(parts, ", ")
}
