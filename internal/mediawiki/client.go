package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"gamewiki/internal/config"
)

const (
	defaultAPIURL      = "https://www.pcgamingwiki.com/w/api.php"
	defaultPageBaseURL = "https://www.pcgamingwiki.com/wiki/"
	defaultUserAgent   = "gamewiki/dev"
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 32 << 20

	// MaxBatchLimit is the largest aplimit the allpages module accepts.
	MaxBatchLimit = 500
)

// Config describes the MediaWiki client configuration.
type Config struct {
	APIURL            string
	PageBaseURL       string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client wraps the MediaWiki action API.
type Client struct {
	endpoint  *url.URL
	pageBase  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	api := strings.TrimSpace(cfg.APIURL)
	if api == "" {
		api = defaultAPIURL
	}
	endpoint, err := url.Parse(api)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: parse api url: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("mediawiki: api url %q is not absolute", api)
	}
	pageBase := strings.TrimSpace(cfg.PageBaseURL)
	if pageBase == "" {
		pageBase = defaultPageBaseURL
	}
	if !strings.HasSuffix(pageBase, "/") {
		pageBase += "/"
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{
		endpoint:  endpoint,
		pageBase:  pageBase,
		userAgent: userAgent,
		http:      client,
		limiter:   limiter,
	}, nil
}

// NewFromConfig builds a client from the [wiki] section.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("mediawiki: config is nil")
	}
	return New(Config{
		APIURL:            cfg.Wiki.APIURL,
		PageBaseURL:       cfg.Wiki.PageBaseURL,
		UserAgent:         cfg.Wiki.UserAgent,
		Timeout:           time.Duration(cfg.Wiki.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Wiki.RequestsPerSecond,
	})
}

// Page is one entry of an allpages listing.
type Page struct {
	Title     string
	PageID    int64
	Namespace int
}

// PageList is a single listing batch plus the token for the next one.
type PageList struct {
	Pages    []Page
	Continue string
}

// AllPagesRequest selects one listing batch.
type AllPagesRequest struct {
	Limit     int
	Continue  string
	Namespace int
}

// PageSelector identifies a page by numeric id or, when the id is zero, by title.
type PageSelector struct {
	Title  string
	PageID int64
}

func (s PageSelector) apply(params url.Values) error {
	switch {
	case s.PageID > 0:
		params.Set("pageid", strconv.FormatInt(s.PageID, 10))
	case strings.TrimSpace(s.Title) != "":
		params.Set("page", s.Title)
	default:
		return errors.New("mediawiki: page title or id is required")
	}
	return nil
}

// ParsedPage is the subset of an action=parse response gamewiki reads.
type ParsedPage struct {
	Title    string
	PageID   int64
	HTML     string
	Wikitext string
}

// Parse property names.
const (
	PropText     = "text"
	PropWikitext = "wikitext"
)

// ClampLimit bounds an allpages batch size to 1..MaxBatchLimit.
func ClampLimit(limit int) int {
	return max(1, min(MaxBatchLimit, limit))
}

// AllPages fetches one batch of page titles from the configured namespace.
func (c *Client) AllPages(ctx context.Context, req AllPagesRequest) (PageList, error) {
	if c == nil {
		return PageList{}, errors.New("mediawiki: client is nil")
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "allpages")
	params.Set("aplimit", strconv.Itoa(ClampLimit(req.Limit)))
	params.Set("apnamespace", strconv.Itoa(req.Namespace))
	if token := strings.TrimSpace(req.Continue); token != "" {
		params.Set("apcontinue", token)
	}

	var payload allPagesResponse
	if err := c.get(ctx, "allpages", params, &payload); err != nil {
		return PageList{}, err
	}
	list := PageList{
		Pages:    make([]Page, 0, len(payload.Query.AllPages)),
		Continue: payload.Continue.APContinue,
	}
	for _, entry := range payload.Query.AllPages {
		list.Pages = append(list.Pages, Page{
			Title:     entry.Title,
			PageID:    entry.PageID,
			Namespace: entry.NS,
		})
	}
	return list, nil
}

// Parse runs action=parse for the selected page and requested props.
func (c *Client) Parse(ctx context.Context, sel PageSelector, props ...string) (ParsedPage, error) {
	if c == nil {
		return ParsedPage{}, errors.New("mediawiki: client is nil")
	}
	if len(props) == 0 {
		props = []string{PropText}
	}
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("formatversion", "2")
	params.Set("prop", strings.Join(props, "|"))
	if err := sel.apply(params); err != nil {
		return ParsedPage{}, err
	}

	var payload parseResponse
	if err := c.get(ctx, "parse", params, &payload); err != nil {
		return ParsedPage{}, err
	}
	return ParsedPage{
		Title:    payload.Parse.Title,
		PageID:   payload.Parse.PageID,
		HTML:     string(payload.Parse.Text),
		Wikitext: string(payload.Parse.Wikitext),
	}, nil
}

// ParseHTML returns the rendered HTML of the selected page.
func (c *Client) ParseHTML(ctx context.Context, sel PageSelector) (string, error) {
	page, err := c.Parse(ctx, sel, PropText)
	if err != nil {
		return "", err
	}
	return page.HTML, nil
}

// Wikitext returns the raw markup of the selected page.
func (c *Client) Wikitext(ctx context.Context, sel PageSelector) (string, error) {
	page, err := c.Parse(ctx, sel, PropWikitext)
	if err != nil {
		return "", err
	}
	return page.Wikitext, nil
}

// CargoInfobox holds the Infobox_game projection. Absent columns are nil.
type CargoInfobox struct {
	Developers *string
	Publisher  *string
	Released   *string
	CoverURL   *string
}

const cargoFields = "Infobox_game.Developers=Developers," +
	"Infobox_game.Publisher=Publisher," +
	"Infobox_game.Released=Released," +
	"Infobox_game.Cover_URL=Cover_URL"

// CargoInfobox queries the Infobox_game table for one page. It returns nil
// when the table has no row for the page.
func (c *Client) CargoInfobox(ctx context.Context, sel PageSelector) (*CargoInfobox, error) {
	if c == nil {
		return nil, errors.New("mediawiki: client is nil")
	}
	params := url.Values{}
	params.Set("action", "cargoquery")
	params.Set("tables", "Infobox_game")
	params.Set("fields", cargoFields)
	params.Set("limit", "1")
	where, err := cargoWhere(sel)
	if err != nil {
		return nil, err
	}
	params.Set("where", where)

	var payload cargoResponse
	if err := c.get(ctx, "cargoquery", params, &payload); err != nil {
		return nil, err
	}
	if len(payload.CargoQuery) == 0 {
		return nil, nil
	}
	row := payload.CargoQuery[0].Title
	return &CargoInfobox{
		Developers: row.Developers,
		Publisher:  row.Publisher,
		Released:   row.Released,
		CoverURL:   row.CoverURL,
	}, nil
}

func cargoWhere(sel PageSelector) (string, error) {
	if sel.PageID > 0 {
		return "Infobox_game._pageID=" + strconv.FormatInt(sel.PageID, 10), nil
	}
	if strings.TrimSpace(sel.Title) == "" {
		return "", errors.New("mediawiki: page title or id is required")
	}
	return `Infobox_game._pageName="` + strings.ReplaceAll(sel.Title, `"`, `""`) + `"`, nil
}

// Ping verifies the API answers a siteinfo query.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("mediawiki: client is nil")
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "siteinfo")
	var payload struct {
		Query struct {
			General struct {
				SiteName string `json:"sitename"`
			} `json:"general"`
		} `json:"query"`
	}
	return c.get(ctx, "siteinfo", params, &payload)
}

// PageURL builds the canonical page URL for a title.
func (c *Client) PageURL(title string) string {
	return PageURL(c.pageBase, title)
}

// Endpoint returns the API URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

func (c *Client) get(ctx context.Context, op string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("mediawiki: %s rate limit wait: %w", op, err)
		}
	}
	params.Set("format", "json")
	endpoint := *c.endpoint
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("mediawiki: build %s request: %w", op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mediawiki: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("mediawiki: read %s response: %w", op, err)
	}
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("mediawiki: decode %s response: %w", op, err)
	}
	if envelope.Error != nil {
		envelope.Error.Op = op
		return envelope.Error
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("mediawiki: decode %s response: %w", op, err)
	}
	return nil
}
