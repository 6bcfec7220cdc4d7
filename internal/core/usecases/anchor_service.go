package usecases

import (
	"context"
	"fmt"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
)

// Geocoder resolves a label to an envelope-valid coordinate, biased toward a
// hint. Implemented by GeocodeService.
type Geocoder interface {
	Geocode(ctx context.Context, label string, hint *domain.GeoPoint) (domain.GeoPoint, error)
}

// AnchorService resolves one segment endpoint to a coordinate.
type AnchorService struct {
	geocoder Geocoder
}

// NewAnchorService creates an AnchorService.
func NewAnchorService(geocoder Geocoder) *AnchorService {
	return &AnchorService{geocoder: geocoder}
}

// ResolveEndpoint resolves a segment endpoint, in priority order: an
// envelope-valid coordinate override on the segment is used verbatim with no
// network call; otherwise the effective label (or explicit labelOverride) is
// geocoded with the hint; otherwise, with an empty label but a hint present,
// the hint itself is returned: the boundary continues from the previous
// anchor, which is what lets a chain skip over an unresolvable label.
func (s *AnchorService) ResolveEndpoint(ctx context.Context, route *domain.Route, index int, end domain.SegmentEnd, hint *domain.GeoPoint, labelOverride string) (domain.GeoPoint, error) {
	seg := &route.Segments[index]

	if p := seg.EndCoords(end); p != nil && domain.InEnvelope(*p) {
		return *p, nil
	}

	label := labelOverride
	if label == "" {
		label = EffectiveLabel(route, index, end)
	}

	if label != "" {
		return s.geocoder.Geocode(ctx, label, hint)
	}
	if hint != nil {
		return *hint, nil
	}
	return domain.GeoPoint{}, fmt.Errorf("segment %d %s: %w", index, end, domain.ErrMissingLabel)
}
