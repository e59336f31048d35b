package epic

import (
	"context"

	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/seed"
)

type Repository interface {
	List(ctx context.Context) ([]*Summary, error)
	Get(ctx context.Context, id string) (*Epic, error)
	Tasks(ctx context.Context, epicID string) ([]TaskRef, error)
	UpdateStatus(ctx context.Context, id string, status lifecycle.Status) (string, error)
	// PopulateCatalog loads the epic/task catalog. Without reset, existing
	// rows keep their status, assignee and PR reference and only catalog
	// fields are refreshed; with reset, rows are restored to the seed
	// baseline.
	PopulateCatalog(ctx context.Context, catalog *seed.Catalog, reset bool) (int, int, error)
}
