package ports

import (
	"context"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
)

// PlaceSearcher queries the external place-search API for candidates matching
// a free-text query, restricted to the geographic envelope.
type PlaceSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Place, error)
}

// RoutingService requests a full-geometry road-following path between two
// points from the external routing provider.
type RoutingService interface {
	Route(ctx context.Context, from, to domain.GeoPoint) (domain.LineString, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ChangeNotifier emits a change notification after route documents are saved,
// consumed by the rendering collaborator to trigger a re-render.
type ChangeNotifier interface {
	RoutesUpdated(ctx context.Context, routeIDs []string) error
}
