package testsupport

import (
	"testing"

	"pathways/internal/config"
	"pathways/internal/docstore"
	"pathways/internal/fileutil"
	"pathways/internal/layout"
	"pathways/internal/logging"
	"pathways/internal/workbook"
)

// Stores holds the collaborators a server needs, built against cfg.
type Stores struct {
	Documents  *docstore.Store
	Positions  *layout.PositionsStore
	Organelles *layout.OrganelleStore
	Workbook   *workbook.Reader
}

// NewStores builds the layout stores and workbook reader for cfg with a
// silent logger. hook, when non-nil, runs before every document commit.
func NewStores(t testing.TB, cfg *config.Config, hook fileutil.CommitHook) Stores {
	t.Helper()
	logger := logging.NewNop()
	docs := docstore.New(docstore.Options{Logger: logger, BeforeCommit: hook})
	return Stores{
		Documents:  docs,
		Positions:  layout.NewPositionsStore(cfg.PositionsPath(), docs, logger),
		Organelles: layout.NewOrganelleStore(cfg.OrganellesPath(), docs, logger),
		Workbook:   workbook.NewReader(cfg.Paths.Workbook, logger),
	}
}
