package catalog_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"gamewiki/internal/catalog"
	"gamewiki/internal/enrich"
	"gamewiki/internal/infobox"
	"gamewiki/internal/sqlitex"
	"gamewiki/internal/testsupport"
)

func completeFields() enrich.Fields {
	return enrich.Fields{
		Developers:  enrich.Ptr("MobGe Games; Senri"),
		Publishers:  enrich.Ptr("Senri"),
		Engines:     enrich.Ptr("Unity"),
		Modes:       enrich.Ptr("Singleplayer"),
		Genres:      enrich.Ptr("Action, Platform"),
		Platforms:   enrich.Ptr("Windows; macOS"),
		Series:      enrich.Ptr("Oddmar"),
		ReleaseDate: enrich.Ptr("February 19, 2020"),
		CoverURL:    enrich.Ptr("File:Oddmar cover.jpg"),
	}
}

func counts(t *testing.T, store *catalog.Store) map[string]int {
	t.Helper()
	c, err := store.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	return c
}

func TestPersistGateSkipsWithoutCompanies(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()

	fields := completeFields()
	fields.Developers = nil
	fields.Publishers = enrich.Ptr("  ;  ")
	result, err := store.Persist(ctx, enrich.PageRef{Title: "Oddmar"}, fields, nil)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if result.Pass || result.Reason != catalog.ReasonMissingCompanies {
		t.Fatalf("expected companies gate failure, got %+v", result)
	}
	for table, n := range counts(t, store) {
		if n != 0 {
			t.Fatalf("expected no rows after gate failure, %s has %d", table, n)
		}
	}
}

func TestPersistGateReasons(t *testing.T) {
	fields := completeFields()
	if d := catalog.Evaluate(enrich.PageRef{}, fields); d.Pass || d.Reason != catalog.ReasonMissingIdentity {
		t.Fatalf("expected identity failure, got %+v", d)
	}
	fields.ReleaseDate = enrich.Ptr(" ")
	if d := catalog.Evaluate(enrich.PageRef{Title: "X"}, fields); d.Pass || d.Reason != catalog.ReasonMissingReleaseDate {
		t.Fatalf("expected release date failure, got %+v", d)
	}
	if d := catalog.Evaluate(enrich.PageRef{URL: "https://example.test/wiki/X"}, completeFields()); !d.Pass {
		t.Fatalf("expected url-only page to pass, got %+v", d)
	}
}

func TestPersistReplayIsIdempotent(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	ref := enrich.PageRef{Title: "Oddmar", PageID: 90210, URL: "https://www.pcgamingwiki.com/wiki/Oddmar"}
	links := []infobox.Link{
		{Site: "official-site", URL: "https://www.oddmar.com/"},
		{Site: "hltb", URL: "https://howlongtobeat.com/game/70290", Title: enrich.Ptr("HowLongToBeat")},
	}

	first, err := store.Persist(ctx, ref, completeFields(), links)
	if err != nil {
		t.Fatalf("first Persist: %v", err)
	}
	if !first.Pass || first.GameID == 0 || !first.Created {
		t.Fatalf("expected created game, got %+v", first)
	}
	before := counts(t, store)

	second, err := store.Persist(ctx, ref, completeFields(), links)
	if err != nil {
		t.Fatalf("second Persist: %v", err)
	}
	if second.GameID != first.GameID {
		t.Fatalf("replay produced a different game id: %d vs %d", second.GameID, first.GameID)
	}
	after := counts(t, store)
	for table, n := range before {
		if after[table] != n {
			t.Fatalf("replay changed %s: %d -> %d", table, n, after[table])
		}
	}
	if after["games"] != 1 || after["companies"] != 2 || after["game_companies"] != 3 {
		t.Fatalf("unexpected counts %v", after)
	}
	if after["genres"] != 2 || after["platforms"] != 2 || after["game_links"] != 2 {
		t.Fatalf("unexpected taxonomy counts %v", after)
	}
}

func TestPersistCompanyHoldsBothRoles(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	fields := enrich.Fields{
		Developers:  enrich.Ptr("Valve"),
		Publishers:  enrich.Ptr("Valve"),
		ReleaseDate: enrich.Ptr("November 19, 1998"),
	}
	ref := enrich.PageRef{Title: "Half-Life", URL: "https://www.pcgamingwiki.com/wiki/Half-Life"}
	for i := 0; i < 2; i++ {
		if _, err := store.Persist(ctx, ref, fields, nil); err != nil {
			t.Fatalf("Persist #%d: %v", i, err)
		}
	}
	c := counts(t, store)
	if c["companies"] != 1 || c["game_companies"] != 2 {
		t.Fatalf("expected one company with two roles, got %v", c)
	}
	game, err := store.FindGame(ctx, "Half-Life")
	if err != nil || game == nil {
		t.Fatalf("FindGame: %v %v", game, err)
	}
	if !slices.Equal(game.Developers, []string{"Valve"}) || !slices.Equal(game.Publishers, []string{"Valve"}) {
		t.Fatalf("unexpected roles dev=%v pub=%v", game.Developers, game.Publishers)
	}
}

func TestPersistDerivesFields(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	ref := enrich.PageRef{Title: "The Test Game (2017)"}
	fields := enrich.Fields{
		Developers:  enrich.Ptr("[[Acme]]"),
		ReleaseDate: enrich.Ptr("March 3, 2017"),
		CoverURL:    enrich.Ptr("File:Cover.png"),
	}
	result, err := store.Persist(ctx, ref, fields, nil)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	game, err := store.GetGame(ctx, result.GameID)
	if err != nil || game == nil {
		t.Fatalf("GetGame: %v %v", game, err)
	}
	if game.CleanTitle == nil || *game.CleanTitle != "The Test Game" {
		t.Fatalf("clean title = %v", game.CleanTitle)
	}
	if game.ReleaseYear == nil || *game.ReleaseYear != 2017 {
		t.Fatalf("release year = %v", game.ReleaseYear)
	}
	want := "https://www.pcgamingwiki.com/wiki/Special:FilePath/File%3ACover.png"
	if game.CoverURL == nil || *game.CoverURL != want {
		t.Fatalf("cover = %v, want %q", game.CoverURL, want)
	}
	if game.URL != nil {
		t.Fatalf("expected no canonical url, got %q", *game.URL)
	}
	if !slices.Equal(game.Developers, []string{"Acme"}) {
		t.Fatalf("developers = %v", game.Developers)
	}
}

func TestPersistFallsBackToTitleKey(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	fields := enrich.Fields{Developers: enrich.Ptr("Acme"), ReleaseDate: enrich.Ptr("2001")}
	ref := enrich.PageRef{PageName: "Untitled Project"}

	first, err := store.Persist(ctx, ref, fields, nil)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	fields.ReleaseDate = enrich.Ptr("2002")
	second, err := store.Persist(ctx, ref, fields, nil)
	if err != nil {
		t.Fatalf("Persist replay: %v", err)
	}
	if first.GameID != second.GameID {
		t.Fatalf("title key not reused: %d vs %d", first.GameID, second.GameID)
	}
	game, err := store.GetGame(ctx, first.GameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if game.Title != "Untitled Project" || game.ReleaseYear == nil || *game.ReleaseYear != 2002 {
		t.Fatalf("unexpected game after update: %+v", game.Game)
	}
}

func TestPersistUpdatesLinkPerSite(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	ref := enrich.PageRef{Title: "Oddmar", URL: "https://www.pcgamingwiki.com/wiki/Oddmar"}

	if _, err := store.Persist(ctx, ref, completeFields(), []infobox.Link{{Site: "igdb", URL: "https://igdb.test/old"}}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	result, err := store.Persist(ctx, ref, completeFields(), []infobox.Link{
		{Site: "igdb", URL: "https://igdb.test/new", Title: enrich.Ptr("IGDB")},
		{Site: "", URL: "https://ignored.test"},
	})
	if err != nil {
		t.Fatalf("Persist replay: %v", err)
	}
	game, err := store.GetGame(ctx, result.GameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if len(game.Links) != 1 {
		t.Fatalf("expected one link, got %+v", game.Links)
	}
	link := game.Links[0]
	if link.URL != "https://igdb.test/new" || link.Title == nil || *link.Title != "IGDB" {
		t.Fatalf("link not updated: %+v", link)
	}
}

func TestListGamesSearch(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, title := range []string{"Oddmar", "Half-Life", "Half-Life 2"} {
		ref := enrich.PageRef{Title: title, URL: "https://www.pcgamingwiki.com/wiki/" + title}
		if _, err := store.Persist(ctx, ref, completeFields(), nil); err != nil {
			t.Fatalf("Persist %s: %v", title, err)
		}
	}
	games, err := store.ListGames(ctx, catalog.ListOptions{Search: "half"})
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 || games[0].Title != "Half-Life" {
		t.Fatalf("unexpected search results %+v", games)
	}
	limited, err := store.ListGames(ctx, catalog.ListOptions{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one game with limit, got %d (%v)", len(limited), err)
	}
}

func TestPersistConcurrentHandlesShareTaxonomyRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stores := []*catalog.Store{
		testsupport.MustOpenCatalog(t, cfg),
		testsupport.MustOpenCatalog(t, cfg),
	}
	ctx := context.Background()

	const perStore = 8
	var wg sync.WaitGroup
	errs := make(chan error, len(stores)*perStore)
	for s, store := range stores {
		for i := range perStore {
			wg.Add(1)
			go func() {
				defer wg.Done()
				title := fmt.Sprintf("Oddmar %d-%d", s, i)
				ref := enrich.PageRef{Title: title, URL: "https://www.pcgamingwiki.com/wiki/" + title}
				if _, err := store.Persist(ctx, ref, completeFields(), nil); err != nil {
					errs <- err
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Persist: %v", err)
	}

	got := counts(t, stores[0])
	want := map[string]int{
		"games":     len(stores) * perStore,
		"companies": 2,
		"genres":    2,
		"platforms": 2,
		"modes":     1,
		"series":    1,
		"engines":   1,
	}
	for table, n := range want {
		if got[table] != n {
			t.Fatalf("%s: expected %d rows, got %d (all counts %v)", table, n, got[table], got)
		}
	}
}

func TestPersistRollbackClearsGameID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	raw, err := sqlitex.Open(cfg.CatalogPath())
	if err != nil {
		t.Fatalf("open raw catalog: %v", err)
	}
	t.Cleanup(func() { _ = raw.Close() })
	if _, err := raw.ExecContext(ctx, `CREATE TRIGGER reject_links BEFORE INSERT ON game_links
		BEGIN SELECT RAISE(ABORT, 'links rejected'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	ref := enrich.PageRef{Title: "Oddmar", URL: "https://www.pcgamingwiki.com/wiki/Oddmar"}
	links := []infobox.Link{{Site: "official-site", URL: "https://www.oddmar.com/"}}
	result, err := store.Persist(ctx, ref, completeFields(), links)
	if err == nil {
		t.Fatal("expected Persist to fail when a link insert aborts")
	}
	if result.GameID != 0 || result.Created {
		t.Fatalf("expected cleared identity after rollback, got %+v", result)
	}
	if !result.Pass {
		t.Fatalf("expected gate decision to survive the failure, got %+v", result)
	}
	if n := counts(t, store)["games"]; n != 0 {
		t.Fatalf("expected rolled back game insert, found %d games", n)
	}
}

func TestPersistKeepsSitesSharingAURL(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	ref := enrich.PageRef{Title: "Oddmar", URL: "https://www.pcgamingwiki.com/wiki/Oddmar"}
	shared := "https://store.steampowered.com/app/1016230"
	links := []infobox.Link{
		{Site: "steam", URL: shared},
		{Site: "steamdb", URL: shared},
	}
	if _, err := store.Persist(ctx, ref, completeFields(), links); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	moved := []infobox.Link{
		{Site: "steam", URL: "https://store.steampowered.com/app/1016231"},
		{Site: "steamdb", URL: "https://store.steampowered.com/app/1016231"},
	}
	if _, err := store.Persist(ctx, ref, completeFields(), moved); err != nil {
		t.Fatalf("Persist replay: %v", err)
	}
	if n := counts(t, store)["game_links"]; n != 2 {
		t.Fatalf("expected one link per site, got %d", n)
	}
}
