package infobox

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

func TestParseOddmarInfobox(t *testing.T) {
	result := Parse(loadFixture(t, "oddmar.html"))
	if !result.Found {
		t.Fatal("expected infobox to be found")
	}

	checks := []struct {
		name string
		got  []string
		want []string
	}{
		{"developers", result.Developers, []string{"Mobge Games", "Senri"}},
		{"publishers", result.Publishers, []string{"Mobge Games"}},
		{"engines", result.Engines, []string{"Unity"}},
		{"platforms", result.Platforms, []string{"macOS (OS X)"}},
		{"release dates", result.ReleaseDates, []string{"February 19, 2020"}},
		{"modes", result.Modes, []string{"Singleplayer"}},
		{"genres", result.Genres, []string{"Platform", "Puzzle"}},
	}
	for _, check := range checks {
		if !reflect.DeepEqual(check.got, check.want) {
			t.Fatalf("%s = %#v, want %#v", check.name, check.got, check.want)
		}
	}
	if len(result.Series) != 0 {
		t.Fatalf("expected no series, got %#v", result.Series)
	}
	if result.Cover == nil || *result.Cover != "https://thumbnails.pcgamingwiki.com/2/25/Oddmar_cover.jpg/300px-Oddmar_cover.jpg" {
		t.Fatalf("unexpected cover: %v", result.Cover)
	}
	if got := result.FirstReleaseDate(); got != "February 19, 2020" {
		t.Fatalf("FirstReleaseDate = %q", got)
	}
}

func TestParseOddmarLinks(t *testing.T) {
	result := Parse(loadFixture(t, "oddmar.html"))
	want := map[string]string{
		"official-site": "https://oddmargame.com/",
		"hltb":          "https://howlongtobeat.com/game?id=56633",
		"igdb":          "https://www.igdb.com/games/oddmar",
		"mobygames":     "https://www.mobygames.com/game/oddmar",
	}
	if len(result.Links) != len(want) {
		t.Fatalf("expected %d links, got %#v", len(want), result.Links)
	}
	for _, link := range result.Links {
		if want[link.Site] != link.URL {
			t.Fatalf("link %s = %q, want %q", link.Site, link.URL, want[link.Site])
		}
	}
	if result.Links[0].Site != "official-site" {
		t.Fatalf("expected document order, got %q first", result.Links[0].Site)
	}
	if result.Links[0].Title == nil || *result.Links[0].Title != "Official site" {
		t.Fatalf("expected block title fallback, got %v", result.Links[0].Title)
	}
	if result.Links[1].Title == nil || *result.Links[1].Title != "Oddmar on HowLongToBeat" {
		t.Fatalf("unexpected hltb title: %v", result.Links[1].Title)
	}
}

func TestParseSeriesSection(t *testing.T) {
	page := `<table class="vertical-navbox template-infobox" id="infobox-game">` +
		`<caption class="template-infobox-title">Series Test Game</caption>` +
		`<tr><th class="template-infobox-header" colspan="2">Series</th></tr>` +
		`<tr><td class="template-infobox-type"></td>` +
		`<td class="template-infobox-info"><a href="/wiki/Category:Foo_series" title="Category:Foo series">Foo Series</a></td></tr>` +
		`</table>`
	result := Parse(page)
	if !reflect.DeepEqual(result.Series, []string{"Foo Series"}) {
		t.Fatalf("series = %#v", result.Series)
	}
}

func TestParseRowLabelSeriesOverridesSection(t *testing.T) {
	page := `<table id="infobox-game">` +
		`<tr><th class="template-infobox-header">Developers</th></tr>` +
		`<tr><td class="template-infobox-type"></td><td class="template-infobox-info"><a>Studio</a></td></tr>` +
		`<tr><td class="template-infobox-type">Franchise</td><td class="template-infobox-info"><a>Saga</a></td></tr>` +
		`<tr><th class="template-infobox-header">Taxonomy</th></tr>` +
		`<tr><td class="template-infobox-type">Series</td><td class="template-infobox-info">Saga, Spin-offs</td></tr>` +
		`</table>`
	result := Parse(page)
	if !reflect.DeepEqual(result.Developers, []string{"Studio"}) {
		t.Fatalf("developers = %#v", result.Developers)
	}
	if !reflect.DeepEqual(result.Series, []string{"Saga", "Spin-offs"}) {
		t.Fatalf("series = %#v", result.Series)
	}
}

func TestParseFallsBackToCommaSplitText(t *testing.T) {
	page := `<div id="infobox-game"><table>` +
		`<tr><th class="template-infobox-header">Publishers</th></tr>` +
		`<tr><td class="template-infobox-type"></td><td class="template-infobox-info">Acme &amp; Co,  Other&nbsp;Pub , </td></tr>` +
		`</table></div>`
	result := Parse(page)
	if !reflect.DeepEqual(result.Publishers, []string{"Acme & Co", "Other Pub"}) {
		t.Fatalf("publishers = %#v", result.Publishers)
	}
}

func TestParseReleaseDatesPerPlatform(t *testing.T) {
	page := `<table id="infobox-game">` +
		`<tr><th class="template-infobox-header">Release dates</th></tr>` +
		`<tr><td class="template-infobox-type">Windows</td><td class="template-infobox-info">May 1, 2019</td></tr>` +
		`<tr><td class="template-infobox-type">Linux</td><td class="template-infobox-info">June 2, 2019</td></tr>` +
		`<tr><td class="template-infobox-type">Windows</td><td class="template-infobox-info">May 1, 2019</td></tr>` +
		`</table>`
	result := Parse(page)
	if !reflect.DeepEqual(result.Platforms, []string{"Windows", "Linux"}) {
		t.Fatalf("platforms = %#v", result.Platforms)
	}
	if !reflect.DeepEqual(result.ReleaseDates, []string{"May 1, 2019", "June 2, 2019"}) {
		t.Fatalf("release dates = %#v", result.ReleaseDates)
	}
}

func TestParseWithoutInfobox(t *testing.T) {
	for _, page := range []string{"", "<p>No infobox here</p>", "<table id=other><tr><td>x</td></tr></table>", "<<<not html"} {
		result := Parse(page)
		if result.Found || len(result.Developers) != 0 || result.Cover != nil || len(result.Links) != 0 {
			t.Fatalf("expected empty result for %q, got %+v", page, result)
		}
	}
}

func TestParseLinksDeduplicateSiteAndSkipEmpty(t *testing.T) {
	page := `<table id="infobox-game"><tr><td class="template-infobox-icons">` +
		`<div class="template-infobox-icon infobox-igdb"><a href="https://igdb.example/first">i</a></div>` +
		`<div class="template-infobox-icon infobox-igdb"><a href="https://igdb.example/second">i</a></div>` +
		`<div class="template-infobox-icon infobox-steam"><a href="">s</a></div>` +
		`<div class="template-infobox-icon svg-icon"><a href="https://nowhere.example">n</a></div>` +
		`<div class="template-infobox-icon infobox-gog"><a href="//www.gog.com/game/x">g</a></div>` +
		`</td></tr></table>`
	result := Parse(page)
	if len(result.Links) != 2 {
		t.Fatalf("expected 2 links, got %#v", result.Links)
	}
	if result.Links[0].URL != "https://igdb.example/first" || result.Links[0].Title != nil {
		t.Fatalf("unexpected first link %#v", result.Links[0])
	}
	if result.Links[1].Site != "gog" || result.Links[1].URL != "https://www.gog.com/game/x" {
		t.Fatalf("unexpected second link %#v", result.Links[1])
	}
}
