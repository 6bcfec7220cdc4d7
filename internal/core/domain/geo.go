package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LineString is an ordered sequence of [lng, lat] pairs, GeoJSON axis order.
// This matches both the routing provider's wire format and the persisted
// segment geometry field.
type LineString [][]float64

// Valid reports whether the line is well-formed: at least two points, every
// point exactly a [lng, lat] pair of finite numbers.
func (ls LineString) Valid() bool {
	if len(ls) < 2 {
		return false
	}
	for _, pt := range ls {
		if len(pt) != 2 {
			return false
		}
		for _, v := range pt {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// First returns the first point of the line.
func (ls LineString) First() GeoPoint {
	return GeoPoint{Lat: ls[0][1], Lng: ls[0][0]}
}

// Last returns the last point of the line.
func (ls LineString) Last() GeoPoint {
	pt := ls[len(ls)-1]
	return GeoPoint{Lat: pt[1], Lng: pt[0]}
}

// Line builds a LineString from points given in lat/lng order.
func Line(points ...GeoPoint) LineString {
	ls := make(LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, []float64{p.Lng, p.Lat})
	}
	return ls
}

// Geographic envelope: the bounding box covering the United Kingdom. No
// coordinate outside it is ever returned to a caller.
const (
	EnvelopeMinLat = 49.8
	EnvelopeMaxLat = 60.95
	EnvelopeMinLng = -8.65
	EnvelopeMaxLng = 1.8
)

// InEnvelope reports whether a point lies inside the geographic envelope.
func InEnvelope(p GeoPoint) bool {
	return p.Lat >= EnvelopeMinLat && p.Lat <= EnvelopeMaxLat &&
		p.Lng >= EnvelopeMinLng && p.Lng <= EnvelopeMaxLng
}

// Bounds is a geographic bounding box grown incrementally while a route is
// assembled, used by the map widget for viewport fitting.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// NewBounds returns a bounding box containing a single point.
func NewBounds(p GeoPoint) *Bounds {
	return &Bounds{MinLat: p.Lat, MinLng: p.Lng, MaxLat: p.Lat, MaxLng: p.Lng}
}

// Extend grows the box to include a point.
func (b *Bounds) Extend(p GeoPoint) {
	if p.Lat < b.MinLat {
		b.MinLat = p.Lat
	}
	if p.Lat > b.MaxLat {
		b.MaxLat = p.Lat
	}
	if p.Lng < b.MinLng {
		b.MinLng = p.Lng
	}
	if p.Lng > b.MaxLng {
		b.MaxLng = p.Lng
	}
}

// ExtendLine grows the box to include every point of a line.
func (b *Bounds) ExtendLine(ls LineString) {
	for _, pt := range ls {
		if len(pt) == 2 {
			b.Extend(GeoPoint{Lat: pt[1], Lng: pt[0]})
		}
	}
}

// LineBounds returns the bounding box of a line, or nil for an empty line.
func LineBounds(ls LineString) *Bounds {
	var b *Bounds
	for _, pt := range ls {
		if len(pt) != 2 {
			continue
		}
		p := GeoPoint{Lat: pt[1], Lng: pt[0]}
		if b == nil {
			b = NewBounds(p)
		} else {
			b.Extend(p)
		}
	}
	return b
}

// Place is a single place-search candidate.
type Place struct {
	Location GeoPoint `json:"location"`
	Name     string   `json:"name"`
}
