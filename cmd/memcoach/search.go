package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"memcoach/internal/content"
)

func newSearchCommand() *cobra.Command {
	var (
		query  string
		deckID int64
		tags   string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search cards by text, deck and tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			return app.app.Run(cmd.Context(), func(ctx context.Context) error {
				filter := content.SearchFilter{
					Query: query,
					Tags:  content.ParseTagNames(tags),
					Limit: limit,
				}
				if deckID > 0 {
					filter.DeckID = &deckID
				}

				results, err := content.NewRepository(app.db).SearchCards(ctx, filter)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Println("no cards found")
					return nil
				}
				for _, card := range results {
					line := fmt.Sprintf("%d [%s] %s", card.ID, card.DeckName, card.Prompt)
					if cardTags := card.Tags(); len(cardTags) > 0 {
						line += " #" + strings.Join(cardTags, " #")
					}
					fmt.Println(line)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "full text search terms")
	cmd.Flags().Int64Var(&deckID, "deck", 0, "restrict to one deck")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags, all must match")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")
	return cmd
}
