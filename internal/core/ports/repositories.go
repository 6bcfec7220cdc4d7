package ports

import (
	"context"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
)

// RouteStore persists the route-sheet document list. Documents are authored
// by external admin tooling; the engine reads them and writes back coordinate
// overrides and drawn geometry. The list is saved whole so segment ordering
// stays authoritative.
type RouteStore interface {
	Get(ctx context.Context) ([]domain.Route, error)
	Save(ctx context.Context, routes []domain.Route) error
}
