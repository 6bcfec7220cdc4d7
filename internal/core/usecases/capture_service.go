package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/ports"
)

// ErrNoActiveCapture is returned for a click with no pick or draw pending.
var ErrNoActiveCapture = errors.New("no capture operation active")

// ErrRouteNotFound is returned when a capture targets an unknown route.
var ErrRouteNotFound = errors.New("route not found")

// PickTarget designates where the next map click lands: a route-level anchor
// or a specific segment endpoint.
type PickTarget struct {
	RouteID string            `json:"route_id"`
	Target  string            `json:"target"` // "start" | "end" | "segment"
	Segment int               `json:"segment,omitempty"`
	End     domain.SegmentEnd `json:"end,omitempty"`
}

// ClickResult reports what a map click did.
type ClickResult struct {
	Mode string `json:"mode"` // "pick" | "draw"
	// Applied is true once a persistence write happened.
	Applied bool `json:"applied"`
	// Pending is true after a draw first-click, waiting for the second.
	Pending bool `json:"pending"`
	// Segment is the index of a newly drawn segment, when one was created.
	Segment int `json:"segment,omitempty"`
}

// CaptureOptions tunes the interactive capture loop.
type CaptureOptions struct {
	// PreviewDebounce bounds request volume while the pointer drags: a
	// preview routing request is only issued once the pointer has rested
	// this long.
	PreviewDebounce time.Duration
}

// DefaultCaptureOptions returns production tuning.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{PreviewDebounce: 280 * time.Millisecond}
}

type drawState struct {
	routeID string
	chain   bool
	snap    bool
	pending *domain.GeoPoint
}

// CaptureService runs the operator-correction loop: pick-on-map writes a
// coordinate override to one anchor; draw-with-snap authors brand-new
// segments from click pairs, optionally storing routed geometry so future
// renders skip resolution entirely. Only one capture operation is active at a
// time; starting a new pick or draw silently supersedes a pending one.
type CaptureService struct {
	store    ports.RouteStore
	paths    PathFinder
	notifier ports.ChangeNotifier
	opts     CaptureOptions

	mu         sync.Mutex
	pick       *PickTarget
	draw       *drawState
	previewGen int
}

// NewCaptureService creates a CaptureService. notifier may be nil.
func NewCaptureService(store ports.RouteStore, paths PathFinder, notifier ports.ChangeNotifier, opts CaptureOptions) *CaptureService {
	if opts.PreviewDebounce <= 0 {
		opts.PreviewDebounce = 280 * time.Millisecond
	}
	return &CaptureService{store: store, paths: paths, notifier: notifier, opts: opts}
}

// StartPick arms pick mode: the next click is captured into the target
// anchor. Any pending pick or draw is superseded.
func (s *CaptureService) StartPick(target PickTarget) error {
	switch target.Target {
	case "start", "end":
	case "segment":
		if target.Segment < 0 {
			return fmt.Errorf("segment index must not be negative")
		}
		if target.End != domain.EndFrom && target.End != domain.EndTo {
			return fmt.Errorf("segment pick requires end %q or %q", domain.EndFrom, domain.EndTo)
		}
	default:
		return fmt.Errorf("unknown pick target %q", target.Target)
	}
	if target.RouteID == "" {
		return fmt.Errorf("route id is required")
	}

	s.mu.Lock()
	s.pick = &target
	s.draw = nil
	s.mu.Unlock()
	return nil
}

// StartDraw arms draw mode for a route. Any pending pick or draw is
// superseded.
func (s *CaptureService) StartDraw(routeID string, chain, snap bool) error {
	if routeID == "" {
		return fmt.Errorf("route id is required")
	}
	s.mu.Lock()
	s.draw = &drawState{routeID: routeID, chain: chain, snap: snap}
	s.pick = nil
	s.mu.Unlock()
	return nil
}

// Cancel clears any pending capture operation.
func (s *CaptureService) Cancel() {
	s.mu.Lock()
	s.pick = nil
	s.draw = nil
	s.mu.Unlock()
}

// Active reports the pending capture mode: "pick", "draw", or "".
func (s *CaptureService) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.pick != nil:
		return "pick"
	case s.draw != nil:
		return "draw"
	default:
		return ""
	}
}

// Click feeds one map click into the active capture operation. Coordinates
// outside the geographic envelope are rejected before any write.
func (s *CaptureService) Click(ctx context.Context, p domain.GeoPoint) (*ClickResult, error) {
	if !domain.InEnvelope(p) {
		return nil, &domain.BoundsViolation{Point: p}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.pick != nil:
		target := *s.pick
		if err := s.applyPick(ctx, target, p); err != nil {
			return nil, err
		}
		// Pick mode exits after one capture.
		s.pick = nil
		return &ClickResult{Mode: "pick", Applied: true}, nil

	case s.draw != nil:
		return s.applyDrawClick(ctx, p)

	default:
		return nil, ErrNoActiveCapture
	}
}

// applyPick writes the clicked coordinate into the target anchor. An empty
// text label gets a synthesized placeholder so the authoring UI has something
// to display.
func (s *CaptureService) applyPick(ctx context.Context, target PickTarget, p domain.GeoPoint) error {
	return s.mutateRoute(ctx, target.RouteID, func(route *domain.Route) error {
		placeholder := fmt.Sprintf("Pinned (%.5f, %.5f)", p.Lat, p.Lng)
		switch target.Target {
		case "start":
			route.StartCoords = &p
			if route.StartLabel == "" {
				route.StartLabel = placeholder
			}
		case "end":
			route.EndCoords = &p
			if route.EndLabel == "" {
				route.EndLabel = placeholder
			}
		case "segment":
			if target.Segment >= len(route.Segments) {
				return fmt.Errorf("segment %d out of range", target.Segment)
			}
			seg := &route.Segments[target.Segment]
			seg.SetEndCoords(target.End, p)
			if seg.EndLabel(target.End) == "" {
				if target.End == domain.EndFrom {
					seg.From = placeholder
				} else {
					seg.To = placeholder
				}
			}
		}
		return nil
	})
}

// applyDrawClick advances the two-click draw state machine. Caller holds s.mu.
func (s *CaptureService) applyDrawClick(ctx context.Context, p domain.GeoPoint) (*ClickResult, error) {
	if s.draw.pending == nil {
		start := p
		s.draw.pending = &start
		return &ClickResult{Mode: "draw", Pending: true}, nil
	}

	from := *s.draw.pending
	seg := domain.Segment{
		Risk:       domain.RiskMedium,
		FromCoords: &from,
		ToCoords:   &p,
	}
	if s.draw.snap {
		// Snap: capture routed geometry now so future renders use exact
		// road-following lines without any geocoding.
		if line := s.paths.Path(ctx, from, p); line != nil {
			seg.Geometry = line
		}
	}

	var index int
	err := s.mutateRoute(ctx, s.draw.routeID, func(route *domain.Route) error {
		route.Segments = append(route.Segments, seg)
		index = len(route.Segments) - 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.draw.chain {
		end := p
		s.draw.pending = &end
	} else {
		s.draw.pending = nil
	}
	return &ClickResult{Mode: "draw", Applied: true, Segment: index}, nil
}

// PreviewDraw returns the polyline a draw pair would produce, debounced: if a
// newer preview arrives while this one is resting, this one returns nil.
func (s *CaptureService) PreviewDraw(ctx context.Context, from, to domain.GeoPoint) (domain.LineString, error) {
	s.mu.Lock()
	s.previewGen++
	gen := s.previewGen
	s.mu.Unlock()

	t := time.NewTimer(s.opts.PreviewDebounce)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}

	s.mu.Lock()
	superseded := s.previewGen != gen
	s.mu.Unlock()
	if superseded {
		return nil, nil
	}

	line := s.paths.Path(ctx, from, to)
	if line == nil {
		line = domain.Line(from, to)
	}
	return line, nil
}

// mutateRoute loads the document list, applies fn to the targeted route, and
// saves the whole list back. The context is re-checked before the write so a
// torn-down caller never produces a half-applied save.
func (s *CaptureService) mutateRoute(ctx context.Context, routeID string, fn func(*domain.Route) error) error {
	routes, err := s.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("load routes: %w", err)
	}

	idx := -1
	for i := range routes {
		if routes[i].ID == routeID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
	}

	if err := fn(&routes[idx]); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Save(ctx, routes); err != nil {
		return fmt.Errorf("save routes: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.RoutesUpdated(ctx, []string{routeID}); err != nil {
			slog.Warn("route change notification failed", "route", routeID, "error", err)
		}
	}
	return nil
}
