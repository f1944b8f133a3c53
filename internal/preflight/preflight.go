package preflight

import (
	"context"

	"gamewiki/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Pinger is anything that can prove it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunAll executes the checks that apply to cfg. The wiki check is skipped
// when wiki is nil.
func RunAll(ctx context.Context, cfg *config.Config, wiki Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if wiki != nil {
		results = append(results, CheckWiki(ctx, cfg.Wiki.APIURL, wiki))
	}
	return results
}
