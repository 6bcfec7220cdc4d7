package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/ports"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/metrics"
)

// Routed polylines are validated against a generous superset of the
// geographic envelope rather than the envelope itself: a road-following path
// may swing slightly outside the strict anchor bounds.
const (
	routingMinLat = 45.0
	routingMaxLat = 62.0
	routingMinLng = -12.0
	routingMaxLng = 5.0
)

// DirectionsOptions tunes the routed-path layer.
type DirectionsOptions struct {
	// Throttle is slept before every provider call.
	Throttle time.Duration
	// MaxEntries bounds the in-process cache; EvictBatch oldest entries are
	// dropped once it is exceeded.
	MaxEntries int
	EvictBatch int
}

// DefaultDirectionsOptions returns production tuning.
func DefaultDirectionsOptions() DirectionsOptions {
	return DirectionsOptions{
		Throttle:   180 * time.Millisecond,
		MaxEntries: 250,
		EvictBatch: 50,
	}
}

// DirectionsService retrieves road-following polylines between anchor pairs,
// cached by rounded coordinate pair. Entries are validated on every read, not
// just on write: a malformed or out-of-bounds stored polyline is discarded
// and re-fetched. Provider failures degrade to nil, never an error; callers
// draw a straight line instead.
type DirectionsService struct {
	router ports.RoutingService
	cache  ports.CacheService
	opts   DirectionsOptions

	mu    sync.Mutex
	mem   map[string]domain.LineString
	order []string
}

// NewDirectionsService creates a DirectionsService. cache may be nil.
func NewDirectionsService(router ports.RoutingService, cache ports.CacheService, opts DirectionsOptions) *DirectionsService {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 250
	}
	if opts.EvictBatch <= 0 {
		opts.EvictBatch = 50
	}
	return &DirectionsService{
		router: router,
		cache:  cache,
		opts:   opts,
		mem:    make(map[string]domain.LineString),
	}
}

// Path returns the routed polyline between two points, or nil when the
// provider fails or returns malformed geometry. nil means "draw a straight
// line between the two points".
func (s *DirectionsService) Path(ctx context.Context, from, to domain.GeoPoint) domain.LineString {
	key := pathCacheKey(from, to)

	if line, ok := s.cachedPath(ctx, key); ok {
		metrics.CacheHits.WithLabelValues("directions").Inc()
		return line
	}
	metrics.CacheMisses.WithLabelValues("directions").Inc()

	if err := throttle(ctx, s.opts.Throttle); err != nil {
		return nil
	}

	line, err := s.router.Route(ctx, from, to)
	if err != nil {
		slog.Warn("routing request failed", "from", from, "to", to, "error", err)
		metrics.RoutingFallbacks.Inc()
		return nil
	}
	if !validRoutedPath(line) {
		slog.Warn("routing returned malformed geometry", "from", from, "to", to, "points", len(line))
		metrics.RoutingFallbacks.Inc()
		return nil
	}

	s.storePath(ctx, key, line)
	return line
}

// cachedPath checks the in-process map, then the write-through backend.
// Invalid entries are discarded and treated as a miss.
func (s *DirectionsService) cachedPath(ctx context.Context, key string) (domain.LineString, bool) {
	s.mu.Lock()
	line, ok := s.mem[key]
	if ok && !validRoutedPath(line) {
		delete(s.mem, key)
		ok = false
	}
	s.mu.Unlock()
	if ok {
		return line, true
	}

	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, pathBackendKey(key))
	if err != nil {
		return nil, false
	}
	var entry struct {
		Coords domain.LineString `json:"coords"`
	}
	if err := json.Unmarshal(data, &entry); err != nil || !validRoutedPath(entry.Coords) {
		_ = s.cache.Delete(ctx, pathBackendKey(key))
		return nil, false
	}

	s.mu.Lock()
	s.remember(key, entry.Coords)
	s.mu.Unlock()
	return entry.Coords, true
}

func (s *DirectionsService) storePath(ctx context.Context, key string, line domain.LineString) {
	s.mu.Lock()
	s.remember(key, line)
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	data, err := json.Marshal(struct {
		Coords domain.LineString `json:"coords"`
	}{Coords: line})
	if err != nil {
		return
	}
	// 7 days: road geometry changes rarely; the read-side validation catches
	// anything that went stale badly.
	if err := s.cache.Set(ctx, pathBackendKey(key), data, 7*24*3600); err != nil {
		slog.Warn("directions cache write failed", "key", key, "error", err)
	}
}

// remember inserts under the size bound. Caller holds s.mu.
func (s *DirectionsService) remember(key string, line domain.LineString) {
	if _, exists := s.mem[key]; !exists {
		s.order = append(s.order, key)
	}
	s.mem[key] = line

	if len(s.mem) > s.opts.MaxEntries {
		evict := s.opts.EvictBatch
		if evict > len(s.order) {
			evict = len(s.order)
		}
		for _, old := range s.order[:evict] {
			delete(s.mem, old)
		}
		s.order = append([]string(nil), s.order[evict:]...)
	}
}

// validRoutedPath checks a stored or fetched polyline: well-formed, and its
// bounding box inside the routing superset of the envelope.
func validRoutedPath(line domain.LineString) bool {
	if !line.Valid() {
		return false
	}
	b := domain.LineBounds(line)
	return b.MinLat >= routingMinLat && b.MaxLat <= routingMaxLat &&
		b.MinLng >= routingMinLng && b.MaxLng <= routingMaxLng
}

// pathCacheKey rounds both anchors to 6 decimal places, ordered from|to.
func pathCacheKey(from, to domain.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", from.Lat, from.Lng, to.Lat, to.Lng)
}

func pathBackendKey(key string) string {
	return "path:" + key
}
