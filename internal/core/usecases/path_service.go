package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/geospatial"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/metrics"
)

// PathFinder returns a routed polyline between two anchors, or nil meaning
// "draw a straight line". Implemented by DirectionsService.
type PathFinder interface {
	Path(ctx context.Context, from, to domain.GeoPoint) domain.LineString
}

// PathOptions tunes route building.
type PathOptions struct {
	// MaxSegmentJumpKm fails a segment whose resolved endpoints are farther
	// apart than this, which almost always means a bad geocoding match.
	MaxSegmentJumpKm float64
	// OnStatus, when set, receives the operator-visible progress line.
	OnStatus func(status string)
}

// DefaultPathOptions returns production tuning.
func DefaultPathOptions() PathOptions {
	return PathOptions{MaxSegmentJumpKm: 180}
}

// PathService chains anchor resolution and routed-path retrieval across a
// route's ordered segments, producing the styled polylines the map widget
// renders. Segments are resolved strictly in order: each resolution feeds the
// previous anchor into the next geocoding call as its disambiguation hint, so
// segments cannot be resolved independently. Per-segment failures are counted
// and logged, never fatal.
type PathService struct {
	anchors  *AnchorService
	geocoder Geocoder
	paths    PathFinder
	opts     PathOptions
}

// NewPathService creates a PathService.
func NewPathService(anchors *AnchorService, geocoder Geocoder, paths PathFinder, opts PathOptions) *PathService {
	if opts.MaxSegmentJumpKm <= 0 {
		opts.MaxSegmentJumpKm = 180
	}
	return &PathService{anchors: anchors, geocoder: geocoder, paths: paths, opts: opts}
}

// BuildRoute turns one route sheet into renderable polylines, an aggregate
// bounding box for viewport fitting, and a failure count. The only error it
// returns is context cancellation: the rendering surface went away, so the
// result must not be applied.
func (s *PathService) BuildRoute(ctx context.Context, route *domain.Route) (*domain.BuildResult, error) {
	started := time.Now()
	route.Normalize()

	res := &domain.BuildResult{}
	var bounds *domain.Bounds
	extend := func(line domain.LineString) {
		if bounds == nil {
			bounds = domain.LineBounds(line)
		} else {
			bounds.ExtendLine(line)
		}
	}

	// Chain state: the last known-good anchor. A failed segment does not
	// advance it, so the next segment resumes from the last resolved point.
	var prev *domain.GeoPoint

	s.status("Locating route start…")
	if route.StartCoords != nil && domain.InEnvelope(*route.StartCoords) {
		prev = route.StartCoords
	} else if q := route.StartQuery(); q != "" {
		if p, err := s.geocoder.Geocode(ctx, q, nil); err == nil {
			prev = &p
		} else {
			slog.Warn("route start unresolved", "route", route.ID, "query", q, "error", err)
		}
	}

	total := len(route.Segments)
	for i := range route.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.status(fmt.Sprintf("Resolving segment %d of %d…", i+1, total))

		seg := &route.Segments[i]

		// Operator-confirmed drawn geometry bypasses resolution entirely.
		if seg.Geometry.Valid() {
			res.Polylines = append(res.Polylines, domain.Polyline{
				Points:  seg.Geometry,
				Style:   domain.StyleRouted,
				Risk:    seg.Risk,
				Segment: i,
			})
			extend(seg.Geometry)
			last := seg.Geometry.Last()
			prev = &last
			continue
		}

		from, to, err := s.resolveSegment(ctx, route, i, prev)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			res.FailedSegments++
			metrics.SegmentsFailed.Inc()
			slog.Warn("segment unresolved", "route", route.ID, "segment", i,
				"road", seg.Road, "error", err)
			continue
		}

		line := s.paths.Path(ctx, from, to)
		style := domain.StyleRouted
		if line == nil {
			line = domain.Line(from, to)
			style = domain.StyleStraight
		}
		res.Polylines = append(res.Polylines, domain.Polyline{
			Points:  line,
			Style:   style,
			Risk:    seg.Risk,
			Segment: i,
		})
		extend(line)
		anchor := to
		prev = &anchor
	}

	// Whole-route fallback: when segments failed, additionally draw one
	// muted start-to-end polyline so the viewer always sees something. It
	// never replaces successfully rendered segments.
	if res.FailedSegments > 0 {
		s.status("Drawing whole-route fallback…")
		if line, ok := s.wholeRouteFallback(ctx, route); ok {
			res.Polylines = append(res.Polylines, domain.Polyline{
				Points:  line,
				Style:   domain.StyleFallback,
				Segment: -1,
			})
			extend(line)
		}
	}

	res.Bounds = bounds
	if res.FailedSegments == 0 {
		res.Status = "Ready."
	} else {
		res.Status = fmt.Sprintf("%d segment(s) could not be resolved.", res.FailedSegments)
	}
	s.status(res.Status)

	metrics.BuildDuration.Observe(time.Since(started).Seconds())
	return res, nil
}

// resolveSegment resolves both endpoints of one segment. The chain anchor,
// when present, is the from point; the to point is always resolved with the
// from point as hint.
func (s *PathService) resolveSegment(ctx context.Context, route *domain.Route, i int, prev *domain.GeoPoint) (from, to domain.GeoPoint, err error) {
	// Chain continuity wins for the from point: the previous segment's to is
	// the same junction, already disambiguated. Without a chain anchor the
	// endpoint is resolved from its own override or label.
	if prev != nil {
		from = *prev
	} else {
		from, err = s.anchors.ResolveEndpoint(ctx, route, i, domain.EndFrom, nil, "")
		if err != nil {
			return from, to, fmt.Errorf("from: %w", err)
		}
	}

	to, err = s.anchors.ResolveEndpoint(ctx, route, i, domain.EndTo, &from, "")
	if err != nil {
		return from, to, fmt.Errorf("to: %w", err)
	}

	if km := geospatial.HaversineKm(from.Lat, from.Lng, to.Lat, to.Lng); km > s.opts.MaxSegmentJumpKm {
		return from, to, &domain.UnrealisticJump{From: from, To: to, DistanceKm: km}
	}
	return from, to, nil
}

// wholeRouteFallback resolves the route-level start and end anchors the same
// way segment endpoints are resolved, then routes between them.
func (s *PathService) wholeRouteFallback(ctx context.Context, route *domain.Route) (domain.LineString, bool) {
	start, err := s.routeAnchor(ctx, route.StartCoords, route.StartQuery(), nil)
	if err != nil {
		slog.Warn("fallback start anchor unresolved", "route", route.ID, "error", err)
		return nil, false
	}
	end, err := s.routeAnchor(ctx, route.EndCoords, route.EndQuery(), &start)
	if err != nil {
		slog.Warn("fallback end anchor unresolved", "route", route.ID, "error", err)
		return nil, false
	}

	line := s.paths.Path(ctx, start, end)
	if line == nil {
		line = domain.Line(start, end)
	}
	return line, true
}

func (s *PathService) routeAnchor(ctx context.Context, override *domain.GeoPoint, query string, hint *domain.GeoPoint) (domain.GeoPoint, error) {
	if override != nil && domain.InEnvelope(*override) {
		return *override, nil
	}
	if query == "" {
		return domain.GeoPoint{}, domain.ErrMissingLabel
	}
	return s.geocoder.Geocode(ctx, query, hint)
}

func (s *PathService) status(msg string) {
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(msg)
	}
}
