package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gamewiki/internal/catalog"
)

func newGamesCommand(ctx *commandContext) *cobra.Command {
	gamesCmd := &cobra.Command{
		Use:   "games",
		Short: "Browse the stored catalog",
	}

	gamesCmd.AddCommand(newGamesListCommand(ctx))
	gamesCmd.AddCommand(newGamesShowCommand(ctx))

	return gamesCmd
}

func newGamesListCommand(ctx *commandContext) *cobra.Command {
	var search string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *catalog.Store) error {
				games, err := store.ListGames(cmd.Context(), catalog.ListOptions{Search: search, Limit: limit})
				if err != nil {
					return err
				}
				if len(games) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No games stored")
					return nil
				}
				rows := make([][]string, 0, len(games))
				for _, game := range games {
					year := "-"
					if game.ReleaseYear != nil {
						year = strconv.Itoa(*game.ReleaseYear)
					}
					rows = append(rows, []string{
						strconv.FormatInt(game.ID, 10),
						game.Title,
						year,
						orDash(game.URL),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Year", "URL"},
					rows,
					0, 2,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "q", "", "Only games whose title contains this text")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum games to show (0 for all)")
	return cmd
}

func newGamesShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id|title|url>",
		Short: "Show a stored game with its relations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.Join(args, " ")
			return ctx.withCatalog(func(store *catalog.Store) error {
				var (
					game *catalog.GameDetail
					err  error
				)
				if id, convErr := strconv.ParseInt(key, 10, 64); convErr == nil {
					game, err = store.GetGame(cmd.Context(), id)
				} else {
					game, err = store.FindGame(cmd.Context(), key)
				}
				if err != nil {
					return err
				}
				if game == nil {
					return errors.New("game not found: " + key)
				}
				if jsonOutput {
					return writeJSON(cmd, game)
				}
				renderGame(cmd, game)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")
	return cmd
}

func renderGame(cmd *cobra.Command, game *catalog.GameDetail) {
	out := cmd.OutOrStdout()
	year := "-"
	if game.ReleaseYear != nil {
		year = strconv.Itoa(*game.ReleaseYear)
	}
	join := func(values []string) string {
		if len(values) == 0 {
			return "-"
		}
		return strings.Join(values, "; ")
	}
	fmt.Fprint(out, renderFields([][2]string{
		{"ID", strconv.FormatInt(game.ID, 10)},
		{"Title", game.Title},
		{"Clean title", orDash(game.CleanTitle)},
		{"URL", orDash(game.URL)},
		{"Release date", orDash(game.ReleaseDate)},
		{"Release year", year},
		{"Cover", orDash(game.CoverURL)},
		{"Developers", join(game.Developers)},
		{"Publishers", join(game.Publishers)},
		{"Engines", join(game.Engines)},
		{"Modes", join(game.Modes)},
		{"Genres", join(game.Genres)},
		{"Platforms", join(game.Platforms)},
		{"Series", join(game.Series)},
	}))
	if len(game.Links) == 0 {
		return
	}
	rows := make([][]string, 0, len(game.Links))
	for _, link := range game.Links {
		rows = append(rows, []string{link.Site, link.URL, orDash(link.Title)})
	}
	fmt.Fprint(out, renderTable([]string{"Site", "URL", "Title"}, rows))
}
