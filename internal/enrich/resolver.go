package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gamewiki/internal/infobox"
	"gamewiki/internal/logging"
	"gamewiki/internal/mediawiki"
)

// PageSource is the subset of the wiki client the resolver needs.
type PageSource interface {
	Parse(ctx context.Context, sel mediawiki.PageSelector, props ...string) (mediawiki.ParsedPage, error)
	CargoInfobox(ctx context.Context, sel mediawiki.PageSelector) (*mediawiki.CargoInfobox, error)
}

// Outcome reports what a Resolve call did besides filling fields.
type Outcome struct {
	Links        []infobox.Link
	Wikitext     string
	HTMLFetched  bool
	CargoQueried bool
	Filled       []string
}

// Resolver fills missing page fields from the wiki.
type Resolver struct {
	source        PageSource
	logger        *slog.Logger
	fetchWikitext bool
}

// NewResolver constructs a resolver. When fetchWikitext is set the HTML
// request also asks for the page markup.
func NewResolver(source PageSource, logger *slog.Logger, fetchWikitext bool) *Resolver {
	return &Resolver{
		source:        source,
		logger:        logging.NewComponentLogger(logger, "enrich"),
		fetchWikitext: fetchWikitext,
	}
}

// Resolve fills the missing members of fields in place. It never overwrites a
// present value and never returns an error: failed sources are logged and
// skipped.
func (r *Resolver) Resolve(ctx context.Context, ref PageRef, fields *Fields) (outcome Outcome) {
	if r == nil || r.source == nil || fields == nil {
		return outcome
	}
	title := ref.DisplayTitle()
	if title == "" {
		return outcome
	}
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldPage, title))
	sel := mediawiki.PageSelector{Title: title, PageID: ref.PageID}

	defer func() {
		if recovered := recover(); recovered != nil {
			logging.WarnWithContext(logger, "enrichment failed",
				"enrichment_failed",
				logging.String("error", fmt.Sprint(recovered)),
				logging.String(logging.FieldErrorHint, "inspect the page HTML for unexpected markup"),
				logging.String(logging.FieldImpact, "page persisted with the fields gathered so far"),
			)
		}
	}()

	if fields.NeedsAny() {
		r.applyInfobox(ctx, logger, sel, fields, &outcome)
	}
	if fields.NeedsCore() {
		r.applyCargo(ctx, logger, sel, fields, &outcome)
	}
	return outcome
}

func (r *Resolver) applyInfobox(ctx context.Context, logger *slog.Logger, sel mediawiki.PageSelector, fields *Fields, outcome *Outcome) {
	props := []string{mediawiki.PropText}
	if r.fetchWikitext {
		props = append(props, mediawiki.PropWikitext)
	}
	start := time.Now()
	page, err := r.source.Parse(ctx, sel, props...)
	outcome.HTMLFetched = true
	if err != nil {
		logging.WarnWithContext(logger, "page html unavailable",
			"parse_failed",
			logging.Error(err),
			logging.Bool("retriable", mediawiki.IsRetriable(err)),
			logging.String(logging.FieldErrorHint, "check wiki.api_url and wiki availability"),
			logging.String(logging.FieldImpact, "infobox fields not enriched for this page"),
		)
		return
	}
	outcome.Wikitext = page.Wikitext
	if page.HTML == "" {
		logger.Debug("page html empty")
		return
	}

	parsed := infobox.Parse(page.HTML)
	outcome.Links = parsed.Links
	filled := outcome.Filled
	if fillList(&fields.Developers, parsed.Developers) {
		filled = append(filled, "developers")
	}
	if fillList(&fields.Publishers, parsed.Publishers) {
		filled = append(filled, "publishers")
	}
	if fillList(&fields.Engines, parsed.Engines) {
		filled = append(filled, "engines")
	}
	if fillList(&fields.Modes, parsed.Modes) {
		filled = append(filled, "modes")
	}
	if fillList(&fields.Genres, parsed.Genres) {
		filled = append(filled, "genres")
	}
	if fillList(&fields.Platforms, parsed.Platforms) {
		filled = append(filled, "platforms")
	}
	if fillList(&fields.Series, parsed.Series) {
		filled = append(filled, "series")
	}
	if fill(&fields.ReleaseDate, parsed.FirstReleaseDate()) {
		filled = append(filled, "release_date")
	}
	if parsed.Cover != nil && fill(&fields.CoverURL, *parsed.Cover) {
		filled = append(filled, "cover_url")
	}
	outcome.Filled = filled

	logger.Debug("infobox parsed",
		logging.Bool("infobox_found", parsed.Found),
		logging.Any("filled", filled),
		logging.Int("links", len(parsed.Links)),
		logging.Duration("duration", time.Since(start)),
	)
}

func (r *Resolver) applyCargo(ctx context.Context, logger *slog.Logger, sel mediawiki.PageSelector, fields *Fields, outcome *Outcome) {
	outcome.CargoQueried = true
	row, err := r.source.CargoInfobox(ctx, sel)
	if err != nil {
		logging.WarnWithContext(logger, "cargo query failed",
			"cargo_failed",
			logging.Error(err),
			logging.Bool("retriable", mediawiki.IsRetriable(err)),
			logging.String(logging.FieldErrorHint, "check wiki availability; Cargo may be disabled on the endpoint"),
			logging.String(logging.FieldImpact, "core fields not enriched from Cargo"),
		)
		return
	}
	if row == nil {
		logger.Debug("cargo returned no infobox row")
		return
	}
	if fill(&fields.Developers, Value(row.Developers)) {
		outcome.Filled = append(outcome.Filled, "developers")
	}
	if fill(&fields.Publishers, Value(row.Publisher)) {
		outcome.Filled = append(outcome.Filled, "publishers")
	}
	if fill(&fields.ReleaseDate, Value(row.Released)) {
		outcome.Filled = append(outcome.Filled, "release_date")
	}
	if fill(&fields.CoverURL, Value(row.CoverURL)) {
		outcome.Filled = append(outcome.Filled, "cover_url")
	}
}
