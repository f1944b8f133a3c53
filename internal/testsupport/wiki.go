package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
)

// WikiPage is one page served by FakeWiki.
type WikiPage struct {
	Title    string
	PageID   int64
	HTML     string
	Wikitext string
	// Cargo is the Infobox_game row; nil means the page has no row.
	Cargo map[string]string
}

// FakeWiki is an httptest MediaWiki API serving allpages, parse, cargoquery
// and siteinfo from an in-memory page set. Listing is ordered by title and
// paginated with the next title as the continuation token.
type FakeWiki struct {
	server *httptest.Server

	mu       sync.Mutex
	pages    map[string]WikiPage
	requests map[string]int
	failing  map[string]int
}

// NewFakeWiki starts a fake wiki and registers its shutdown.
func NewFakeWiki(t testing.TB, pages ...WikiPage) *FakeWiki {
	t.Helper()
	wiki := &FakeWiki{
		pages:    make(map[string]WikiPage),
		requests: make(map[string]int),
		failing:  make(map[string]int),
	}
	for _, page := range pages {
		wiki.pages[page.Title] = page
	}
	wiki.server = httptest.NewServer(http.HandlerFunc(wiki.serve))
	t.Cleanup(wiki.server.Close)
	return wiki
}

// APIURL returns the api.php endpoint.
func (w *FakeWiki) APIURL() string {
	return w.server.URL + "/w/api.php"
}

// PageBaseURL returns the canonical page prefix.
func (w *FakeWiki) PageBaseURL() string {
	return w.server.URL + "/wiki/"
}

// Requests returns how many requests an operation received. Operations are
// "allpages", "parse", "cargoquery" and "siteinfo".
func (w *FakeWiki) Requests(op string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requests[op]
}

// FailNext makes the next n requests for op answer 503.
func (w *FakeWiki) FailNext(op string, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failing[op] = n
}

func (w *FakeWiki) serve(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	op := q.Get("action")
	switch {
	case op == "query" && q.Get("list") == "allpages":
		op = "allpages"
	case op == "query" && q.Get("meta") == "siteinfo":
		op = "siteinfo"
	}

	w.mu.Lock()
	w.requests[op]++
	if w.failing[op] > 0 {
		w.failing[op]--
		w.mu.Unlock()
		http.Error(rw, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.mu.Unlock()

	switch op {
	case "allpages":
		w.serveAllPages(rw, q.Get("apcontinue"), q.Get("aplimit"))
	case "parse":
		w.serveParse(rw, q.Get("page"), q.Get("pageid"))
	case "cargoquery":
		w.serveCargo(rw, q.Get("where"))
	case "siteinfo":
		writeWikiJSON(rw, map[string]any{"query": map[string]any{"general": map[string]string{"sitename": "Fake Wiki"}}})
	default:
		writeWikiJSON(rw, apiError("badvalue", "unsupported action"))
	}
}

func (w *FakeWiki) serveAllPages(rw http.ResponseWriter, from, limitParam string) {
	limit, err := strconv.Atoi(limitParam)
	if err != nil || limit < 1 {
		limit = 10
	}
	w.mu.Lock()
	titles := make([]string, 0, len(w.pages))
	for title := range w.pages {
		titles = append(titles, title)
	}
	pages := w.pages
	w.mu.Unlock()
	sort.Strings(titles)

	start := 0
	if from != "" {
		start = sort.SearchStrings(titles, from)
	}
	end := min(start+limit, len(titles))
	entries := make([]map[string]any, 0, end-start)
	for _, title := range titles[start:end] {
		entries = append(entries, map[string]any{"pageid": pages[title].PageID, "ns": 0, "title": title})
	}
	payload := map[string]any{"query": map[string]any{"allpages": entries}}
	if end < len(titles) {
		payload["continue"] = map[string]string{"apcontinue": titles[end], "continue": "-||"}
	}
	writeWikiJSON(rw, payload)
}

func (w *FakeWiki) serveParse(rw http.ResponseWriter, title, pageID string) {
	page, ok := w.lookup(title, pageID)
	if !ok {
		writeWikiJSON(rw, apiError("missingtitle", "The page you specified doesn't exist."))
		return
	}
	writeWikiJSON(rw, map[string]any{"parse": map[string]any{
		"title":    page.Title,
		"pageid":   page.PageID,
		"text":     page.HTML,
		"wikitext": page.Wikitext,
	}})
}

func (w *FakeWiki) serveCargo(rw http.ResponseWriter, where string) {
	w.mu.Lock()
	var found *WikiPage
	for _, page := range w.pages {
		byID := "Infobox_game._pageID=" + strconv.FormatInt(page.PageID, 10)
		byName := `Infobox_game._pageName="` + page.Title + `"`
		if where == byID || where == byName {
			p := page
			found = &p
			break
		}
	}
	w.mu.Unlock()
	rows := []map[string]any{}
	if found != nil && found.Cargo != nil {
		rows = append(rows, map[string]any{"title": found.Cargo})
	}
	writeWikiJSON(rw, map[string]any{"cargoquery": rows})
}

func (w *FakeWiki) lookup(title, pageID string) (WikiPage, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pageID != "" {
		id, err := strconv.ParseInt(pageID, 10, 64)
		if err != nil {
			return WikiPage{}, false
		}
		for _, page := range w.pages {
			if page.PageID == id {
				return page, true
			}
		}
		return WikiPage{}, false
	}
	page, ok := w.pages[title]
	return page, ok
}

func apiError(code, info string) map[string]any {
	return map[string]any{"error": map[string]string{"code": code, "info": info}}
}

func writeWikiJSON(rw http.ResponseWriter, payload any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(payload)
}
