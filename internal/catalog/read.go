package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamewiki/internal/sqlitex"
)

// Game is a stored game row.
type Game struct {
	ID          int64
	Title       string
	URL         *string
	CleanTitle  *string
	ReleaseDate *string
	ReleaseYear *int
	CoverURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Link is a stored external reference.
type Link struct {
	Site  string
	Title *string
	URL   string
}

// GameDetail is a game with its resolved relations.
type GameDetail struct {
	Game
	Developers []string
	Publishers []string
	Engines    []string
	Modes      []string
	Genres     []string
	Platforms  []string
	Series     []string
	Links      []Link
}

// ListOptions filters ListGames.
type ListOptions struct {
	Search string
	Limit  int
}

const gameColumns = `id, title, pcgw_url, clean_title, release_date, release_year, cover_url, created_at, updated_at`

// ListGames returns games ordered by title.
func (s *Store) ListGames(ctx context.Context, opts ListOptions) ([]Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games`
	var args []any
	if search := strings.TrimSpace(opts.Search); search != "" {
		query += ` WHERE title LIKE ? OR clean_title LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY title COLLATE NOCASE, id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

// GetGame returns the game with its relations, or nil when absent.
func (s *Store) GetGame(ctx context.Context, id int64) (*GameDetail, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, game)
}

// FindGame looks a game up by canonical URL or exact title.
func (s *Store) FindGame(ctx context.Context, key string) (*GameDetail, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE pcgw_url = ? OR title = ? ORDER BY pcgw_url IS NULL, id LIMIT 1`,
		key, key,
	)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, game)
}

// Counts returns the number of rows in each catalog table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	tables := []string{
		"games", "companies", "genres", "platforms", "modes", "series", "engines",
		"game_companies", "game_links",
	}
	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (s *Store) loadDetail(ctx context.Context, game *Game) (*GameDetail, error) {
	detail := &GameDetail{Game: *game}
	var err error
	if detail.Developers, err = s.companyNames(ctx, game.ID, RoleDeveloper); err != nil {
		return nil, err
	}
	if detail.Publishers, err = s.companyNames(ctx, game.ID, RolePublisher); err != nil {
		return nil, err
	}
	targets := []struct {
		taxonomy Taxonomy
		dst      *[]string
	}{
		{TaxonomyEngine, &detail.Engines},
		{TaxonomyMode, &detail.Modes},
		{TaxonomyGenre, &detail.Genres},
		{TaxonomyPlatform, &detail.Platforms},
		{TaxonomySeries, &detail.Series},
	}
	for _, target := range targets {
		if *target.dst, err = s.relationNames(ctx, game.ID, target.taxonomy); err != nil {
			return nil, err
		}
	}
	if detail.Links, err = s.links(ctx, game.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Store) companyNames(ctx context.Context, gameID int64, role Role) ([]string, error) {
	return s.names(ctx,
		`SELECT c.name FROM game_companies gc JOIN companies c ON c.id = gc.company_id
        WHERE gc.game_id = ? AND gc.role = ? ORDER BY gc.id`,
		gameID, string(role),
	)
}

func (s *Store) relationNames(ctx context.Context, gameID int64, taxonomy Taxonomy) ([]string, error) {
	p, ok := pivots[taxonomy]
	if !ok {
		return nil, fmt.Errorf("unknown taxonomy %q", taxonomy)
	}
	return s.names(ctx,
		`SELECT t.name FROM `+p.table+` p JOIN `+string(taxonomy)+` t ON t.id = p.`+p.column+`
        WHERE p.game_id = ? ORDER BY p.rowid`,
		gameID,
	)
}

func (s *Store) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load relation names: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) links(ctx context.Context, gameID int64) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT site, title, url FROM game_links WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	defer rows.Close()
	var links []Link
	for rows.Next() {
		var (
			link  Link
			title sql.NullString
		)
		if err := rows.Scan(&link.Site, &title, &link.URL); err != nil {
			return nil, err
		}
		link.Title = sqlitex.StringPtr(title)
		links = append(links, link)
	}
	return links, rows.Err()
}

func scanGame(scanner interface{ Scan(dest ...any) error }) (*Game, error) {
	var (
		game        Game
		url         sql.NullString
		cleanTitle  sql.NullString
		releaseDate sql.NullString
		releaseYear sql.NullInt64
		coverURL    sql.NullString
		createdAt   string
		updatedAt   string
	)
	if err := scanner.Scan(
		&game.ID, &game.Title, &url, &cleanTitle, &releaseDate, &releaseYear, &coverURL, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	game.URL = sqlitex.StringPtr(url)
	game.CleanTitle = sqlitex.StringPtr(cleanTitle)
	game.ReleaseDate = sqlitex.StringPtr(releaseDate)
	game.ReleaseYear = sqlitex.IntPtr(releaseYear)
	game.CoverURL = sqlitex.StringPtr(coverURL)
	if t, err := sqlitex.ParseTime(createdAt); err == nil {
		game.CreatedAt = t
	}
	if t, err := sqlitex.ParseTime(updatedAt); err == nil {
		game.UpdatedAt = t
	}
	return &game, nil
}
