package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gamewiki/internal/enrich"
	"gamewiki/internal/infobox"
	"gamewiki/internal/sqlitex"
	"gamewiki/internal/textutil"
)

// Gate outcomes for pages that are not persisted.
const (
	ReasonMissingIdentity    = "missing title and url"
	ReasonMissingReleaseDate = "missing release date"
	ReasonMissingCompanies   = "missing developers and publishers"
)

// Decision is the completion gate verdict for one page.
type Decision struct {
	Pass         bool
	Reason       string
	HasRelease   bool
	HasCompanies bool
}

// Evaluate applies the completion gate: a game needs an identity, a release
// date and at least one developer or publisher.
func Evaluate(ref enrich.PageRef, fields enrich.Fields) Decision {
	d := Decision{
		HasRelease:   enrich.Present(fields.ReleaseDate),
		HasCompanies: len(fields.DeveloperNames())+len(fields.PublisherNames()) > 0,
	}
	switch {
	case !ref.Identifiable():
		d.Reason = ReasonMissingIdentity
	case !d.HasRelease:
		d.Reason = ReasonMissingReleaseDate
	case !d.HasCompanies:
		d.Reason = ReasonMissingCompanies
	default:
		d.Pass = true
	}
	return d
}

// Result reports what Persist did.
type Result struct {
	Decision
	GameID  int64
	Created bool
}

// Persist gates and upserts one enriched page. A gate failure is not an
// error: the returned result has Pass unset and nothing is written. On error
// the transaction is rolled back and GameID is zero.
func (s *Store) Persist(ctx context.Context, ref enrich.PageRef, fields enrich.Fields, links []infobox.Link) (Result, error) {
	result := Result{Decision: Evaluate(ref, fields)}
	if !result.Pass {
		return result, nil
	}

	title := ref.DisplayTitle()
	if title == "" {
		title = titleFromURL(ref.URL)
	}
	if title == "" {
		title = strings.TrimSpace(ref.URL)
	}
	releaseDate := enrich.Value(fields.ReleaseDate)
	row := gameRow{
		title:       title,
		url:         strings.TrimSpace(ref.URL),
		cleanTitle:  CleanTitle(title),
		releaseDate: releaseDate,
		releaseYear: ReleaseYear(releaseDate),
		coverURL:    NormalizeCoverURL(fields.CoverURL, s.filePathBase),
	}

	taxonomies := []struct {
		taxonomy Taxonomy
		names    []string
	}{
		{TaxonomyEngine, textutil.SplitNames(enrich.Value(fields.Engines))},
		{TaxonomyMode, textutil.SplitNames(enrich.Value(fields.Modes))},
		{TaxonomyGenre, textutil.SplitNames(enrich.Value(fields.Genres))},
		{TaxonomyPlatform, textutil.SplitNames(enrich.Value(fields.Platforms))},
		{TaxonomySeries, textutil.SplitNames(enrich.Value(fields.Series))},
	}
	companies := []struct {
		role  Role
		names []string
	}{
		{RoleDeveloper, fields.DeveloperNames()},
		{RolePublisher, fields.PublisherNames()},
	}

	err := sqlitex.InTx(ctx, s.db, func(tx *sql.Tx) error {
		now := sqlitex.Now()
		gameID, created, err := upsertGame(ctx, tx, row, now)
		if err != nil {
			return err
		}
		result.GameID, result.Created = gameID, created

		for _, group := range companies {
			for _, name := range group.names {
				companyID, err := getOrCreate(ctx, tx, TaxonomyCompany, name, now)
				if err != nil {
					return err
				}
				if err := ensureCompany(ctx, tx, gameID, companyID, group.role, now); err != nil {
					return err
				}
			}
		}
		for _, group := range taxonomies {
			for _, name := range group.names {
				entityID, err := getOrCreate(ctx, tx, group.taxonomy, name, now)
				if err != nil {
					return err
				}
				if err := ensureRelation(ctx, tx, group.taxonomy, gameID, entityID); err != nil {
					return err
				}
			}
		}
		for _, link := range links {
			site := strings.TrimSpace(link.Site)
			target := strings.TrimSpace(link.URL)
			if site == "" || target == "" {
				continue
			}
			if err := ensureLink(ctx, tx, gameID, site, target, link.Title, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		result.GameID, result.Created = 0, false
		return result, fmt.Errorf("persist game %q: %w", title, err)
	}
	return result, nil
}

type gameRow struct {
	title       string
	url         string
	cleanTitle  *string
	releaseDate string
	releaseYear *int
	coverURL    *string
}

// upsertGame creates or updates the game keyed by canonical URL, or by title
// when the page has no URL.
func upsertGame(ctx context.Context, tx *sql.Tx, row gameRow, now string) (int64, bool, error) {
	conflict := `ON CONFLICT(pcgw_url) DO UPDATE SET`
	if row.url == "" {
		conflict = `ON CONFLICT(title) WHERE pcgw_url IS NULL DO UPDATE SET`
	}
	query := `INSERT INTO games (title, pcgw_url, clean_title, release_date, release_year, cover_url, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ` + conflict + `
            title = excluded.title,
            clean_title = excluded.clean_title,
            release_date = excluded.release_date,
            release_year = excluded.release_year,
            cover_url = excluded.cover_url,
            updated_at = excluded.updated_at
        RETURNING id, created_at = updated_at`
	var (
		id      int64
		created bool
	)
	err := tx.QueryRowContext(ctx, query,
		row.title,
		sqlitex.NullableString(row.url),
		sqlitex.NullableStringPtr(row.cleanTitle),
		row.releaseDate,
		sqlitex.NullableInt(row.releaseYear),
		sqlitex.NullableStringPtr(row.coverURL),
		now,
		now,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("upsert game: %w", err)
	}
	return id, created, nil
}
