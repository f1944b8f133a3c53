package enrich

import (
	"strings"

	"gamewiki/internal/textutil"
)

// PageRef identifies a wiki page to enrich.
type PageRef struct {
	Title    string `json:"title,omitempty"`
	PageName string `json:"page_name,omitempty"`
	PageID   int64  `json:"page_id,omitempty"`
	URL      string `json:"pcgw_url,omitempty"`
}

// DisplayTitle returns the title, falling back to the listing page name.
func (r PageRef) DisplayTitle() string {
	if title := strings.TrimSpace(r.Title); title != "" {
		return title
	}
	return strings.TrimSpace(r.PageName)
}

// Identifiable reports whether the page has a title or a canonical URL.
func (r PageRef) Identifiable() bool {
	return r.DisplayTitle() != "" || strings.TrimSpace(r.URL) != ""
}

// Fields is the partial metadata record for one page. List-valued members use
// the "; " joined form accepted by textutil.SplitNames.
type Fields struct {
	Developers  *string `json:"developers,omitempty"`
	Publishers  *string `json:"publishers,omitempty"`
	Engines     *string `json:"engines,omitempty"`
	Modes       *string `json:"modes,omitempty"`
	Genres      *string `json:"genres,omitempty"`
	Platforms   *string `json:"platforms,omitempty"`
	Series      *string `json:"series,omitempty"`
	ReleaseDate *string `json:"release_date,omitempty"`
	CoverURL    *string `json:"cover_url,omitempty"`
}

// Present reports whether v holds a non-blank value.
func Present(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}

// Value returns the trimmed value of v, or "".
func Value(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// NeedsAny reports whether any field is missing.
func (f *Fields) NeedsAny() bool {
	for _, v := range f.all() {
		if !Present(*v) {
			return true
		}
	}
	return false
}

// NeedsCore reports whether any field the completion gate or cover depends on is missing.
func (f *Fields) NeedsCore() bool {
	return !Present(f.Developers) || !Present(f.Publishers) || !Present(f.ReleaseDate) || !Present(f.CoverURL)
}

// Missing lists the names of missing fields.
func (f *Fields) Missing() []string {
	var missing []string
	for i, v := range f.all() {
		if !Present(*v) {
			missing = append(missing, fieldNames[i])
		}
	}
	return missing
}

// DeveloperNames splits the developer list.
func (f *Fields) DeveloperNames() []string { return textutil.SplitNames(Value(f.Developers)) }

// PublisherNames splits the publisher list.
func (f *Fields) PublisherNames() []string { return textutil.SplitNames(Value(f.Publishers)) }

var fieldNames = [...]string{
	"developers", "publishers", "engines", "modes", "genres",
	"platforms", "series", "release_date", "cover_url",
}

func (f *Fields) all() [len(fieldNames)]**string {
	return [len(fieldNames)]**string{
		&f.Developers, &f.Publishers, &f.Engines, &f.Modes, &f.Genres,
		&f.Platforms, &f.Series, &f.ReleaseDate, &f.CoverURL,
	}
}

// fill stores value in dst when dst is missing and value is not blank.
func fill(dst **string, value string) bool {
	if Present(*dst) {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	*dst = &value
	return true
}

func fillList(dst **string, values []string) bool {
	if len(values) == 0 {
		return false
	}
	return fill(dst, textutil.JoinNames(values))
}
