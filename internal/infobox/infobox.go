package infobox

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"

	"gamewiki/internal/textutil"
)

const (
	selectorInfobox = `[id="infobox-game"]`
	selectorHeader  = "th.template-infobox-header"
	selectorCover   = "td.template-infobox-cover img"
	selectorType    = "td.template-infobox-type"
	selectorInfo    = "td.template-infobox-info"
	selectorIcon    = ".template-infobox-icon"
	iconClassPrefix = "infobox-"
)

// Result holds everything extracted from a single infobox.
type Result struct {
	Found        bool
	Developers   []string
	Publishers   []string
	Engines      []string
	Modes        []string
	Genres       []string
	Platforms    []string
	Series       []string
	ReleaseDates []string
	Cover        *string
	Links        []Link
}

// Link is an external reference rendered as an infobox icon.
type Link struct {
	Site  string
	URL   string
	Title *string
}

// FirstReleaseDate returns the first release date found, or "".
func (r Result) FirstReleaseDate() string {
	if len(r.ReleaseDates) == 0 {
		return ""
	}
	return r.ReleaseDates[0]
}

// Parse extracts infobox fields from a page HTML fragment.
func Parse(pageHTML string) Result {
	var result Result
	if strings.TrimSpace(pageHTML) == "" {
		return result
	}
	root, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return result
	}
	box := goquery.NewDocumentFromNode(root).Find(selectorInfobox).First()
	if box.Length() == 0 {
		return result
	}
	result.Found = true

	p := &rowParser{fold: cases.Fold(), result: &result}
	box.Find("tr").Each(func(_ int, row *goquery.Selection) {
		p.row(row)
	})
	result.Links = parseLinks(box)

	result.Developers = textutil.NormalizeAll(result.Developers)
	result.Publishers = textutil.NormalizeAll(result.Publishers)
	result.Engines = textutil.NormalizeAll(result.Engines)
	result.Modes = textutil.NormalizeAll(result.Modes)
	result.Genres = textutil.NormalizeAll(result.Genres)
	result.Platforms = textutil.NormalizeAll(result.Platforms)
	result.Series = textutil.NormalizeAll(result.Series)
	result.ReleaseDates = textutil.NormalizeAll(result.ReleaseDates)
	if result.Cover != nil && *result.Cover == "" {
		result.Cover = nil
	}
	return result
}

type rowParser struct {
	fold    cases.Caser
	section string
	result  *Result
}

func (p *rowParser) contains(haystack string, needles ...string) bool {
	folded := p.fold.String(haystack)
	for _, needle := range needles {
		if strings.Contains(folded, needle) {
			return true
		}
	}
	return false
}

func (p *rowParser) row(row *goquery.Selection) {
	r := p.result
	if r.Cover == nil {
		if src, ok := row.Find(selectorCover).First().Attr("src"); ok {
			if cover := textutil.NormalizeText(src); cover != "" {
				r.Cover = &cover
			}
		}
	}

	if header := row.Find(selectorHeader).First(); header.Length() > 0 {
		p.section = textutil.NormalizeText(header.Text())
		return
	}

	label := ""
	if typeCell := row.Find(selectorType).First(); typeCell.Length() > 0 {
		label = textutil.NormalizeText(typeCell.Text())
	}
	info := row.Find(selectorInfo).First()

	if p.section != "" && p.contains(p.section, "release dates") {
		if label != "" {
			r.Platforms = append(r.Platforms, label)
		}
		if info.Length() > 0 {
			if date := textutil.NormalizeText(info.Text()); date != "" {
				r.ReleaseDates = append(r.ReleaseDates, date)
			}
		}
	}

	if info.Length() == 0 {
		return
	}
	values := cellValues(info)

	// A series/franchise label on the row itself wins over the section context.
	if label != "" && p.contains(label, "series", "franchise") {
		r.Series = append(r.Series, values...)
		return
	}
	if p.section == "" {
		return
	}

	switch {
	case p.contains(p.section, "developer"):
		r.Developers = append(r.Developers, values...)
	case p.contains(p.section, "publisher"):
		r.Publishers = append(r.Publishers, values...)
	case p.contains(p.section, "engine"):
		r.Engines = append(r.Engines, values...)
	case p.contains(p.section, "series", "franchise"):
		r.Series = append(r.Series, values...)
	case p.contains(p.section, "taxonomy"):
		switch {
		case label == "":
		case p.contains(label, "mode"):
			r.Modes = append(r.Modes, values...)
		case p.contains(label, "genre"):
			r.Genres = append(r.Genres, values...)
		}
	}
}

// cellValues prefers hyperlink texts and falls back to comma-split cell text.
func cellValues(cell *goquery.Selection) []string {
	var values []string
	cell.Find("a").Each(func(_ int, a *goquery.Selection) {
		if text := textutil.NormalizeText(a.Text()); text != "" {
			values = append(values, text)
		}
	})
	if len(values) > 0 {
		return values
	}
	raw := textutil.NormalizeText(cell.Text())
	if raw == "" {
		return nil
	}
	for _, part := range strings.Split(raw, ",") {
		if part = textutil.NormalizeText(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func parseLinks(box *goquery.Selection) []Link {
	var links []Link
	seen := make(map[string]struct{})
	box.Find(selectorIcon).Each(func(_ int, icon *goquery.Selection) {
		site := siteKey(icon.AttrOr("class", ""))
		if site == "" {
			return
		}
		if _, ok := seen[site]; ok {
			return
		}
		anchor := icon.Find("a[href]").First()
		target := strings.TrimSpace(anchor.AttrOr("href", ""))
		if target == "" {
			return
		}
		if strings.HasPrefix(target, "//") {
			target = "https:" + target
		}
		title := textutil.NormalizeText(anchor.AttrOr("title", ""))
		if title == "" {
			title = textutil.NormalizeText(icon.AttrOr("title", ""))
		}
		link := Link{Site: site, URL: target}
		if title != "" {
			link.Title = &title
		}
		seen[site] = struct{}{}
		links = append(links, link)
	})
	return links
}

func siteKey(class string) string {
	for _, token := range strings.Fields(class) {
		if strings.HasPrefix(token, iconClassPrefix) && len(token) > len(iconClassPrefix) {
			return strings.ToLower(strings.TrimPrefix(token, iconClassPrefix))
		}
	}
	return ""
}
