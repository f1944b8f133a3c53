package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gamewiki/internal/config"
	"gamewiki/internal/sqlitex"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// Role tags a company relation.
type Role string

const (
	RoleDeveloper Role = "developer"
	RolePublisher Role = "publisher"
)

// Taxonomy names a bare {id, name} entity table and its pivot.
type Taxonomy string

const (
	TaxonomyCompany  Taxonomy = "companies"
	TaxonomyGenre    Taxonomy = "genres"
	TaxonomyPlatform Taxonomy = "platforms"
	TaxonomyMode     Taxonomy = "modes"
	TaxonomySeries   Taxonomy = "series"
	TaxonomyEngine   Taxonomy = "engines"
)

// pivot describes the join table for a taxonomy other than companies.
type pivot struct {
	table  string
	column string
}

var pivots = map[Taxonomy]pivot{
	TaxonomyGenre:    {table: "game_genres", column: "genre_id"},
	TaxonomyPlatform: {table: "game_platforms", column: "platform_id"},
	TaxonomyMode:     {table: "game_modes", column: "mode_id"},
	TaxonomySeries:   {table: "game_series", column: "series_id"},
	TaxonomyEngine:   {table: "game_engines", column: "engine_id"},
}

// Store persists games and their relations.
type Store struct {
	db           *sql.DB
	path         string
	filePathBase string
}

// Open initializes or connects to the catalog database in the data directory.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("catalog: config is required")
	}
	path := cfg.CatalogPath()
	db, err := sqlitex.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	store := &Store{db: db, path: path, filePathBase: cfg.FilePathBaseURL()}
	if err := sqlitex.EnsureSchema(context.Background(), db, schemaSQL, schemaVersion,
		"delete "+path+" to rebuild the catalog"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("catalog store unavailable")
	}
	return s.db.PingContext(ctx)
}

// getOrCreate returns the id for name in the taxonomy table, inserting it when
// absent. A single statement keeps concurrent writers from racing.
func getOrCreate(ctx context.Context, tx *sql.Tx, taxonomy Taxonomy, name, now string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("empty name")
	}
	if taxonomy != TaxonomyCompany {
		if _, ok := pivots[taxonomy]; !ok {
			return 0, fmt.Errorf("unknown taxonomy %q", taxonomy)
		}
	}
	query := `INSERT INTO ` + string(taxonomy) + ` (name, created_at, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET name = excluded.name
        RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, query, name, now, now).Scan(&id); err != nil {
		return 0, fmt.Errorf("get or create %s %q: %w", taxonomy, name, err)
	}
	return id, nil
}

func ensureCompany(ctx context.Context, tx *sql.Tx, gameID, companyID int64, role Role, now string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO game_companies (game_id, company_id, role, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(game_id, company_id, role) DO NOTHING`,
		gameID, companyID, string(role), now,
	)
	if err != nil {
		return fmt.Errorf("link company %d as %s: %w", companyID, role, err)
	}
	return nil
}

func ensureRelation(ctx context.Context, tx *sql.Tx, taxonomy Taxonomy, gameID, entityID int64) error {
	p, ok := pivots[taxonomy]
	if !ok {
		return fmt.Errorf("unknown taxonomy %q", taxonomy)
	}
	query := `INSERT INTO ` + p.table + ` (game_id, ` + p.column + `) VALUES (?, ?)
        ON CONFLICT(game_id, ` + p.column + `) DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, gameID, entityID); err != nil {
		return fmt.Errorf("link %s %d: %w", taxonomy, entityID, err)
	}
	return nil
}

func ensureLink(ctx context.Context, tx *sql.Tx, gameID int64, site, url string, title *string, now string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO game_links (game_id, site, title, url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(game_id, site) DO UPDATE SET
            url = excluded.url,
            title = excluded.title,
            updated_at = excluded.updated_at`,
		gameID, site, sqlitex.NullableStringPtr(title), url, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert link %s: %w", site, err)
	}
	return nil
}
