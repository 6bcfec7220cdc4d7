package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/usecases"
)

// --- Mock RoutingService ---

type mockRouter struct {
	mu      sync.Mutex
	calls   int
	routeFn func(ctx context.Context, from, to domain.GeoPoint) (domain.LineString, error)
}

func (m *mockRouter) Route(ctx context.Context, from, to domain.GeoPoint) (domain.LineString, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.routeFn != nil {
		return m.routeFn(ctx, from, to)
	}
	return domain.Line(from, to), nil
}

func (m *mockRouter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testDirectionsOptions() usecases.DirectionsOptions {
	opts := usecases.DefaultDirectionsOptions()
	opts.Throttle = 0
	return opts
}

func TestPath_SecondLookupServedFromCache(t *testing.T) {
	router := &mockRouter{}
	svc := usecases.NewDirectionsService(router, nil, testDirectionsOptions())

	for i := 0; i < 2; i++ {
		if line := svc.Path(context.Background(), newmarket, leicester); line == nil {
			t.Fatalf("lookup %d: unexpected nil", i)
		}
	}
	if router.callCount() != 1 {
		t.Errorf("expected exactly 1 provider call, got %d", router.callCount())
	}
}

func TestPath_ProviderFailureReturnsNil(t *testing.T) {
	router := &mockRouter{routeFn: func(ctx context.Context, from, to domain.GeoPoint) (domain.LineString, error) {
		return nil, errors.New("osrm down")
	}}
	svc := usecases.NewDirectionsService(router, nil, testDirectionsOptions())

	if line := svc.Path(context.Background(), newmarket, leicester); line != nil {
		t.Errorf("expected nil on provider failure, got %v", line)
	}
	// Failures are not cached.
	svc.Path(context.Background(), newmarket, leicester)
	if router.callCount() != 2 {
		t.Errorf("expected 2 provider calls, got %d", router.callCount())
	}
}

func TestPath_MalformedGeometryReturnsNil(t *testing.T) {
	router := &mockRouter{routeFn: func(ctx context.Context, from, to domain.GeoPoint) (domain.LineString, error) {
		return domain.LineString{{0.4}}, nil // single malformed point
	}}
	svc := usecases.NewDirectionsService(router, nil, testDirectionsOptions())

	if line := svc.Path(context.Background(), newmarket, leicester); line != nil {
		t.Errorf("expected nil for malformed geometry, got %v", line)
	}
}

func TestPath_PersistedEntryOutsideBoundsRefetched(t *testing.T) {
	cache := newFakeCache()
	// Pre-populate the backend with a polyline entirely outside the routing
	// superset (southern hemisphere).
	key := fmt.Sprintf("path:%.6f,%.6f|%.6f,%.6f", newmarket.Lat, newmarket.Lng, leicester.Lat, leicester.Lng)
	_ = cache.Set(context.Background(), key, []byte(`{"coords":[[151.2,-33.8],[151.3,-33.9]]}`), 60)

	router := &mockRouter{}
	svc := usecases.NewDirectionsService(router, cache, testDirectionsOptions())

	line := svc.Path(context.Background(), newmarket, leicester)
	if line == nil {
		t.Fatal("expected a re-fetched polyline")
	}
	if router.callCount() != 1 {
		t.Errorf("invalid cached entry must trigger a provider call, got %d", router.callCount())
	}
	if got := line.First(); got != newmarket {
		t.Errorf("re-fetched line starts at %+v", got)
	}
}

func TestPath_PersistedEntryReused(t *testing.T) {
	cache := newFakeCache()
	router := &mockRouter{}

	svc := usecases.NewDirectionsService(router, cache, testDirectionsOptions())
	svc.Path(context.Background(), newmarket, leicester)

	// A fresh service sharing the backend serves the persisted entry.
	svc2 := usecases.NewDirectionsService(router, cache, testDirectionsOptions())
	if line := svc2.Path(context.Background(), newmarket, leicester); line == nil {
		t.Fatal("expected persisted entry")
	}
	if router.callCount() != 1 {
		t.Errorf("expected 1 provider call across services, got %d", router.callCount())
	}
}

func TestPath_BoundedEviction(t *testing.T) {
	router := &mockRouter{}
	opts := testDirectionsOptions()
	opts.MaxEntries = 4
	opts.EvictBatch = 2
	svc := usecases.NewDirectionsService(router, nil, opts)

	pairs := []domain.GeoPoint{
		{Lat: 52.0, Lng: 0.1}, {Lat: 52.1, Lng: 0.2}, {Lat: 52.2, Lng: 0.3},
		{Lat: 52.3, Lng: 0.4}, {Lat: 52.4, Lng: 0.5},
	}
	for _, p := range pairs {
		svc.Path(context.Background(), newmarket, p)
	}
	if router.callCount() != 5 {
		t.Fatalf("expected 5 provider calls, got %d", router.callCount())
	}

	// The oldest entry was evicted once the bound was exceeded.
	svc.Path(context.Background(), newmarket, pairs[0])
	if router.callCount() != 6 {
		t.Errorf("expected evicted entry to be re-fetched, got %d calls", router.callCount())
	}
	// The newest entry is still cached.
	svc.Path(context.Background(), newmarket, pairs[4])
	if router.callCount() != 6 {
		t.Errorf("expected newest entry cached, got %d calls", router.callCount())
	}
}
