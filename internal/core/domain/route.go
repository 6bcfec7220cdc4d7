package domain

import "strings"

// RiskRating classifies a segment Low/Medium/High. It only affects rendering
// style, never resolution.
type RiskRating string

const (
	RiskLow    RiskRating = "L"
	RiskMedium RiskRating = "M"
	RiskHigh   RiskRating = "H"
)

// SegmentEnd names one endpoint of a segment.
type SegmentEnd string

const (
	EndFrom SegmentEnd = "from"
	EndTo   SegmentEnd = "to"
)

// Segment is one ordered road leg of a route sheet. FromCoords/ToCoords are
// operator-supplied overrides that take absolute precedence over the text
// labels. Geometry, when present, is an operator-confirmed routed polyline
// that bypasses resolution entirely.
type Segment struct {
	Road       string     `json:"road"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Risk       RiskRating `json:"risk"`
	FromCoords *GeoPoint  `json:"fromCoords,omitempty"`
	ToCoords   *GeoPoint  `json:"toCoords,omitempty"`
	Geometry   LineString `json:"geometry,omitempty"`
	Comment    string     `json:"comment,omitempty"`
}

// EndLabel returns the text label for one endpoint.
func (s *Segment) EndLabel(end SegmentEnd) string {
	if end == EndFrom {
		return s.From
	}
	return s.To
}

// EndCoords returns the coordinate override for one endpoint, or nil.
func (s *Segment) EndCoords(end SegmentEnd) *GeoPoint {
	if end == EndFrom {
		return s.FromCoords
	}
	return s.ToCoords
}

// SetEndCoords writes the coordinate override for one endpoint.
func (s *Segment) SetEndCoords(end SegmentEnd, p GeoPoint) {
	if end == EndFrom {
		s.FromCoords = &p
	} else {
		s.ToCoords = &p
	}
}

// Route is a human-authored route sheet: an ordered list of segments plus
// route-level start/end anchors. Order defines direction of travel.
type Route struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Notes         string    `json:"notes,omitempty"`
	StartLabel    string    `json:"startLabel"`
	StartPostcode string    `json:"startPostcode,omitempty"`
	StartCoords   *GeoPoint `json:"startCoords,omitempty"`
	EndLabel      string    `json:"endLabel"`
	EndPostcode   string    `json:"endPostcode,omitempty"`
	EndCoords     *GeoPoint `json:"endCoords,omitempty"`
	Segments      []Segment `json:"segments"`
}

// StartQuery returns the preferred geocoding text for the route start.
func (r *Route) StartQuery() string {
	if q := strings.TrimSpace(r.StartPostcode); q != "" {
		return q
	}
	return strings.TrimSpace(r.StartLabel)
}

// EndQuery returns the preferred geocoding text for the route end.
func (r *Route) EndQuery() string {
	if q := strings.TrimSpace(r.EndPostcode); q != "" {
		return q
	}
	return strings.TrimSpace(r.EndLabel)
}

// Normalize applies persistence-boundary defaults: missing risk ratings
// become Medium, coordinate overrides outside the geographic envelope are
// dropped, and malformed stored geometry is cleared so resolution logic never
// has to null-guard per access.
func (r *Route) Normalize() {
	r.StartCoords = validOrNil(r.StartCoords)
	r.EndCoords = validOrNil(r.EndCoords)
	for i := range r.Segments {
		seg := &r.Segments[i]
		switch seg.Risk {
		case RiskLow, RiskMedium, RiskHigh:
		default:
			seg.Risk = RiskMedium
		}
		seg.FromCoords = validOrNil(seg.FromCoords)
		seg.ToCoords = validOrNil(seg.ToCoords)
		if seg.Geometry != nil && !seg.Geometry.Valid() {
			seg.Geometry = nil
		}
	}
}

func validOrNil(p *GeoPoint) *GeoPoint {
	if p == nil || !InEnvelope(*p) {
		return nil
	}
	return p
}
