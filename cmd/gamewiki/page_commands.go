package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gamewiki/internal/catalog"
	"gamewiki/internal/enrich"
	"gamewiki/internal/mediawiki"
	"gamewiki/internal/pipeline"
)

func newPageCommand(ctx *commandContext) *cobra.Command {
	pageCmd := &cobra.Command{
		Use:   "page",
		Short: "Inspect or enrich a single wiki page",
	}

	pageCmd.AddCommand(newPageShowCommand(ctx))
	pageCmd.AddCommand(newPageEnrichCommand(ctx))
	pageCmd.AddCommand(newPageWikitextCommand(ctx))

	return pageCmd
}

type pageView struct {
	Title    string        `json:"title"`
	URL      string        `json:"url"`
	Fields   enrich.Fields `json:"fields"`
	Links    []linkView    `json:"links,omitempty"`
	Sources  []string      `json:"sources,omitempty"`
	Complete bool          `json:"passes_gate"`
	Reason   string        `json:"gate_reason,omitempty"`
}

type linkView struct {
	Site  string `json:"site"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

func newPageShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <title>",
		Short: "Resolve a page's metadata without storing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.wikiClient()
			if err != nil {
				return err
			}
			title := strings.Join(args, " ")
			ref := enrich.PageRef{Title: title, URL: client.PageURL(title)}

			var fields enrich.Fields
			cfg := ctx.configValue()
			resolver := enrich.NewResolver(client, ctx.inspectLogger(), cfg.Sync.FetchWikitext)
			outcome := resolver.Resolve(cmd.Context(), ref, &fields)
			decision := catalog.Evaluate(ref, fields)

			view := pageView{
				Title:    title,
				URL:      ref.URL,
				Fields:   fields,
				Complete: decision.Pass,
				Reason:   decision.Reason,
			}
			if outcome.HTMLFetched {
				view.Sources = append(view.Sources, "infobox")
			}
			if outcome.CargoQueried {
				view.Sources = append(view.Sources, "cargo")
			}
			for _, link := range outcome.Links {
				lv := linkView{Site: link.Site, URL: link.URL}
				if link.Title != nil {
					lv.Title = *link.Title
				}
				view.Links = append(view.Links, lv)
			}

			if jsonOutput {
				return writeJSON(cmd, view)
			}
			renderPageView(cmd, view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")
	return cmd
}

func renderPageView(cmd *cobra.Command, view pageView) {
	out := cmd.OutOrStdout()
	f := view.Fields
	gate := "passes"
	if !view.Complete {
		gate = "fails (" + view.Reason + ")"
	}
	fmt.Fprint(out, renderFields([][2]string{
		{"Title", view.Title},
		{"URL", view.URL},
		{"Developers", orDash(f.Developers)},
		{"Publishers", orDash(f.Publishers)},
		{"Release date", orDash(f.ReleaseDate)},
		{"Engines", orDash(f.Engines)},
		{"Modes", orDash(f.Modes)},
		{"Genres", orDash(f.Genres)},
		{"Platforms", orDash(f.Platforms)},
		{"Series", orDash(f.Series)},
		{"Cover", orDash(f.CoverURL)},
		{"Sources", strings.Join(view.Sources, ", ")},
		{"Completion gate", gate},
	}))
	if len(view.Links) == 0 {
		return
	}
	rows := make([][]string, 0, len(view.Links))
	for _, link := range view.Links {
		rows = append(rows, []string{link.Site, link.URL, link.Title})
	}
	fmt.Fprint(out, renderTable([]string{"Site", "URL", "Title"}, rows))
}

func newPageEnrichCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <title>",
		Short: "Resolve a page and store it in the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.wikiClient()
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			logger := ctx.inspectLogger()
			title := strings.Join(args, " ")

			return ctx.withCatalog(func(store *catalog.Store) error {
				resolver := enrich.NewResolver(client, logger, cfg.Sync.FetchWikitext)
				stage := pipeline.NewPageStage(resolver, store, logger)
				result, err := stage.Process(cmd.Context(), pipeline.PagePayload{
					PageRef: enrich.PageRef{Title: title, URL: client.PageURL(title)},
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !result.Stored.Pass {
					fmt.Fprintf(out, "Not stored: %s\n", result.Stored.Reason)
					return nil
				}
				verb := "Updated"
				if result.Stored.Created {
					verb = "Created"
				}
				fmt.Fprintf(out, "%s game #%d (%s)\n", verb, result.Stored.GameID, title)
				return nil
			})
		},
	}
}

func newPageWikitextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wikitext <title>",
		Short: "Print a page's wiki markup",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.wikiClient()
			if err != nil {
				return err
			}
			text, err := client.Wikitext(cmd.Context(), mediawiki.PageSelector{Title: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
