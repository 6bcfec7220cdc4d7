package usecases_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/usecases"
)

// --- Mock RouteStore ---

type mockStore struct {
	mu     sync.Mutex
	routes []domain.Route
	saves  int
}

func (m *mockStore) Get(ctx context.Context) ([]domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Route, len(m.routes))
	copy(out, m.routes)
	return out, nil
}

func (m *mockStore) Save(ctx context.Context, routes []domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = routes
	m.saves++
	return nil
}

func (m *mockStore) route(t *testing.T, id string) domain.Route {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.routes {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("route %s not in store", id)
	return domain.Route{}
}

// --- Mock ChangeNotifier ---

type mockNotifier struct {
	mu  sync.Mutex
	ids [][]string
}

func (m *mockNotifier) RoutesUpdated(ctx context.Context, routeIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, routeIDs)
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

func testCaptureService(store *mockStore, paths usecases.PathFinder, notifier *mockNotifier) *usecases.CaptureService {
	opts := usecases.CaptureOptions{PreviewDebounce: time.Millisecond}
	if notifier == nil {
		return usecases.NewCaptureService(store, paths, nil, opts)
	}
	return usecases.NewCaptureService(store, paths, notifier, opts)
}

func TestClick_PickStartWritesOverrideAndPlaceholder(t *testing.T) {
	store := &mockStore{routes: []domain.Route{{ID: "r1", Segments: []domain.Segment{{From: "a", To: "b"}}}}}
	notifier := &mockNotifier{}
	svc := testCaptureService(store, &mockPathFinder{}, notifier)

	if err := svc.StartPick(usecases.PickTarget{RouteID: "r1", Target: "start"}); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Click(context.Background(), newmarket)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied || res.Mode != "pick" {
		t.Fatalf("result = %+v", res)
	}

	saved := store.route(t, "r1")
	if saved.StartCoords == nil || *saved.StartCoords != newmarket {
		t.Errorf("start coords = %+v", saved.StartCoords)
	}
	if !strings.HasPrefix(saved.StartLabel, "Pinned (") {
		t.Errorf("placeholder label = %q", saved.StartLabel)
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 change notification, got %d", notifier.count())
	}

	// Pick mode exits after one capture.
	if _, err := svc.Click(context.Background(), leicester); !errors.Is(err, usecases.ErrNoActiveCapture) {
		t.Errorf("expected ErrNoActiveCapture, got %v", err)
	}
}

func TestClick_PickSegmentKeepsExistingLabel(t *testing.T) {
	store := &mockStore{routes: []domain.Route{{
		ID:       "r1",
		Segments: []domain.Segment{{From: "Newmarket CB8 7NR", To: "A1/A14 Junction"}},
	}}}
	svc := testCaptureService(store, &mockPathFinder{}, nil)

	err := svc.StartPick(usecases.PickTarget{RouteID: "r1", Target: "segment", Segment: 0, End: domain.EndTo})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Click(context.Background(), huntingdon); err != nil {
		t.Fatal(err)
	}

	seg := store.route(t, "r1").Segments[0]
	if seg.ToCoords == nil || *seg.ToCoords != huntingdon {
		t.Errorf("to coords = %+v", seg.ToCoords)
	}
	if seg.To != "A1/A14 Junction" {
		t.Errorf("existing label must be kept, got %q", seg.To)
	}
}

func TestClick_OutsideEnvelopeRejected(t *testing.T) {
	store := &mockStore{routes: []domain.Route{{ID: "r1"}}}
	svc := testCaptureService(store, &mockPathFinder{}, nil)

	if err := svc.StartPick(usecases.PickTarget{RouteID: "r1", Target: "start"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Click(context.Background(), domain.GeoPoint{Lat: 48.8, Lng: 2.35})
	var berr *domain.BoundsViolation
	if !errors.As(err, &berr) {
		t.Fatalf("expected BoundsViolation, got %v", err)
	}
	// The rejected click leaves the pick armed.
	if svc.Active() != "pick" {
		t.Errorf("active = %q, want pick", svc.Active())
	}
	if store.saves != 0 {
		t.Errorf("no write expected, got %d saves", store.saves)
	}
}

func TestClick_DrawPairCreatesSegment(t *testing.T) {
	store := &mockStore{routes: []domain.Route{{ID: "r1"}}}
	svc := testCaptureService(store, &mockPathFinder{}, nil)

	if err := svc.StartDraw("r1", false, false); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Click(context.Background(), newmarket)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Pending || res.Applied {
		t.Fatalf("first click result = %+v", res)
	}
	res, err = svc.Click(context.Background(), huntingdon)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied || res.Segment != 0 {
		t.Fatalf("second click result = %+v", res)
	}

	seg := store.route(t, "r1").Segments[0]
	if seg.FromCoords == nil || *seg.FromCoords != newmarket {
		t.Errorf("from coords = %+v", seg.FromCoords)
	}
	if seg.ToCoords == nil || *seg.ToCoords != huntingdon {
		t.Errorf("to coords = %+v", seg.ToCoords)
	}
	if seg.Geometry != nil {
		t.Errorf("snap off: no geometry expected, got %v", seg.Geometry)
	}
	// Without chain, the next click starts a fresh pair.
	res, err = svc.Click(context.Background(), leicester)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Pending {
		t.Errorf("expected fresh pending start, got %+v", res)
	}
}

func TestClick_DrawChainKeepsPreviousEnd(t *testing.T) {
	store := &mockStore{routes: []domain.Route{{ID: "r1"}}}
	svc := testCaptureService(store, &mockPathFinder{}, nil)

	if err := svc.StartDraw("r1", true, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Click(context.Background(), newmarket); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Click(context.Background(), huntingdon); err != nil {
		t.Fatal(err)
	}
	// Chained: the third click completes a second segment from huntingdon.
	res, err := svc.Click(context.Background(), leicester)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied || res.Segment != 1 {
		t.Fatalf("chained click result = %+v", res)
	}

	segs := store.route(t, "r1").Segments
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[1].FromCoords == nil || *segs[1].FromCoords != huntingdon {
		t.Errorf("chained from = %+v", segs[1].FromCoords)
	}
}

func TestClick_DrawSnapStoresRoutedGeometry(t *testing.T) {
	routed := domain.Line(newmarket, huntingdon, leicester)
	paths := &mockPathFinder{pathFn: func(ctx context.Context, from, to domain.GeoPoint) domain.LineString {
		return routed
	}}
	store := &mockStore{routes: []domain.Route{{ID: "r1"}}}
	svc := testCaptureService(store, paths, nil)

	if err := svc.StartDraw("r1", false, true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Click(context.Background(), newmarket); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Click(context.Background(), leicester); err != nil {
		t.Fatal(err)
	}

	seg := store.route(t, "r1").Segments[0]
	if len(seg.Geometry) != 3 {
		t.Errorf("snapped geometry = %v", seg.Geometry)
	}
}

func TestStartDraw_SupersedesPendingPick(t *testing.T) {
	store := &mockStore{routes: []domain.Route{{ID: "r1"}}}
	svc := testCaptureService(store, &mockPathFinder{}, nil)

	if err := svc.StartPick(usecases.PickTarget{RouteID: "r1", Target: "end"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.StartDraw("r1", false, false); err != nil {
		t.Fatal(err)
	}
	if svc.Active() != "draw" {
		t.Errorf("active = %q, want draw", svc.Active())
	}
	svc.Cancel()
	if svc.Active() != "" {
		t.Errorf("active after cancel = %q", svc.Active())
	}
}

func TestClick_UnknownRoute(t *testing.T) {
	store := &mockStore{}
	svc := testCaptureService(store, &mockPathFinder{}, nil)

	if err := svc.StartPick(usecases.PickTarget{RouteID: "ghost", Target: "start"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Click(context.Background(), newmarket); !errors.Is(err, usecases.ErrRouteNotFound) {
		t.Fatalf("expected ErrRouteNotFound, got %v", err)
	}
}

func TestPreviewDraw_SupersededPreviewDropped(t *testing.T) {
	paths := &mockPathFinder{pathFn: func(ctx context.Context, from, to domain.GeoPoint) domain.LineString {
		return domain.Line(from, to)
	}}
	store := &mockStore{routes: []domain.Route{{ID: "r1"}}}
	svc := usecases.NewCaptureService(store, paths, nil, usecases.CaptureOptions{PreviewDebounce: 80 * time.Millisecond})

	type result struct {
		line domain.LineString
		err  error
	}
	first := make(chan result, 1)
	go func() {
		line, err := svc.PreviewDraw(context.Background(), newmarket, huntingdon)
		first <- result{line, err}
	}()

	// Let the first preview enter its debounce rest, then supersede it.
	time.Sleep(20 * time.Millisecond)
	line, err := svc.PreviewDraw(context.Background(), newmarket, leicester)
	if err != nil {
		t.Fatal(err)
	}
	if line == nil {
		t.Fatal("newest preview must produce a line")
	}
	if got := line.Last(); got != leicester {
		t.Errorf("preview ends at %+v", got)
	}

	r := <-first
	if r.err != nil {
		t.Fatal(r.err)
	}
	if r.line != nil {
		t.Errorf("superseded preview must be dropped, got %v", r.line)
	}
}

func TestPreviewDraw_CancelledContext(t *testing.T) {
	store := &mockStore{}
	svc := usecases.NewCaptureService(store, &mockPathFinder{}, nil, usecases.CaptureOptions{PreviewDebounce: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.PreviewDraw(ctx, newmarket, leicester); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
