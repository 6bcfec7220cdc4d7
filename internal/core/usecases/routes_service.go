package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/ports"
)

// RoutesService is the boundary the admin/authoring tooling talks to: it
// reads the route-sheet document list and replaces it wholesale, applying
// persistence-boundary defaults and emitting the change notification the
// rendering collaborator listens for.
type RoutesService struct {
	store    ports.RouteStore
	notifier ports.ChangeNotifier
}

// NewRoutesService creates a RoutesService. notifier may be nil.
func NewRoutesService(store ports.RouteStore, notifier ports.ChangeNotifier) *RoutesService {
	return &RoutesService{store: store, notifier: notifier}
}

// List returns all route sheets, normalized.
func (s *RoutesService) List(ctx context.Context) ([]domain.Route, error) {
	routes, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	for i := range routes {
		routes[i].Normalize()
	}
	return routes, nil
}

// Get returns one route sheet by ID.
func (s *RoutesService) Get(ctx context.Context, id string) (*domain.Route, error) {
	routes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		if routes[i].ID == id {
			return &routes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
}

// ReplaceAll saves the whole document list and notifies the renderer.
func (s *RoutesService) ReplaceAll(ctx context.Context, routes []domain.Route) error {
	ids := make([]string, 0, len(routes))
	for i := range routes {
		if routes[i].ID == "" {
			return fmt.Errorf("route %d: id is required", i)
		}
		routes[i].Normalize()
		ids = append(ids, routes[i].ID)
	}

	if err := s.store.Save(ctx, routes); err != nil {
		return fmt.Errorf("save routes: %w", err)
	}
	if s.notifier != nil {
		if err := s.notifier.RoutesUpdated(ctx, ids); err != nil {
			slog.Warn("route change notification failed", "error", err)
		}
	}
	return nil
}
