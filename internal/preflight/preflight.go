package preflight

import (
	"context"

	"pathways/internal/config"
	"pathways/internal/docstore"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, store *docstore.Store) []Result {
	if cfg == nil {
		return nil
	}
	if store == nil {
		store = docstore.New(docstore.Options{})
	}

	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckWorkbook(cfg.Paths.Workbook),
		CheckStaticDir(cfg.Paths.StaticDir),
		CheckDocument("Positions layout", cfg.PositionsPath(), store),
		CheckDocument("Organelle layout", cfg.OrganellesPath(), store),
		CheckListener(ctx, cfg.Server.Bind),
	}
}

// Failed reports whether any required check did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
