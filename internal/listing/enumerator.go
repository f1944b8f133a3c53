package listing

import (
	"context"
	"fmt"
	"strings"

	"gamewiki/internal/enrich"
	"gamewiki/internal/mediawiki"
)

// Lister is the subset of the wiki client enumeration needs.
type Lister interface {
	AllPages(ctx context.Context, req mediawiki.AllPagesRequest) (mediawiki.PageList, error)
	PageURL(title string) string
}

// State is the enumerator lifecycle.
type State string

const (
	StateFetching  State = "fetching"
	StateExhausted State = "exhausted"
)

// Enumerator pages through allpages one batch per Next call.
type Enumerator struct {
	lister    Lister
	limit     int
	namespace int
	token     string
	state     State
}

// NewEnumerator starts an enumeration at token ("" for the beginning).
func NewEnumerator(lister Lister, limit, namespace int, token string) *Enumerator {
	return &Enumerator{
		lister:    lister,
		limit:     mediawiki.ClampLimit(limit),
		namespace: namespace,
		token:     strings.TrimSpace(token),
		state:     StateFetching,
	}
}

// Next fetches the next batch. It returns nil once the listing is exhausted.
// On error the enumerator keeps its token so the same batch can be retried.
func (e *Enumerator) Next(ctx context.Context) ([]enrich.PageRef, error) {
	if e.state == StateExhausted {
		return nil, nil
	}
	list, err := e.lister.AllPages(ctx, mediawiki.AllPagesRequest{
		Limit:     e.limit,
		Continue:  e.token,
		Namespace: e.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("list pages from %q: %w", e.token, err)
	}
	if len(list.Pages) == 0 {
		e.state = StateExhausted
		return nil, nil
	}

	refs := make([]enrich.PageRef, 0, len(list.Pages))
	for _, page := range list.Pages {
		refs = append(refs, enrich.PageRef{
			Title:    page.Title,
			PageName: page.Title,
			PageID:   page.PageID,
			URL:      e.lister.PageURL(page.Title),
		})
	}
	e.token = strings.TrimSpace(list.Continue)
	if e.token == "" {
		e.state = StateExhausted
	}
	return refs, nil
}

// Token returns the continuation token for the next batch.
func (e *Enumerator) Token() string {
	return e.token
}

// State reports whether more batches may follow.
func (e *Enumerator) State() State {
	return e.state
}

// Exhausted reports whether the listing has ended.
func (e *Enumerator) Exhausted() bool {
	return e.state == StateExhausted
}

// Limit returns the clamped batch size.
func (e *Enumerator) Limit() int {
	return e.limit
}
