package domain

// PolylineStyle tells the map widget how a polyline was produced, so routed
// lines, straight-line fallbacks, and the whole-route fallback render
// distinctly.
type PolylineStyle string

const (
	// StyleRouted is a road-following polyline from the routing provider or
	// operator-confirmed drawn geometry.
	StyleRouted PolylineStyle = "routed"
	// StyleStraight is a two-point straight line used when routing failed;
	// rendered dashed.
	StyleStraight PolylineStyle = "straight"
	// StyleFallback is the additive whole-route start-to-end polyline drawn
	// when one or more segments failed; rendered muted.
	StyleFallback PolylineStyle = "fallback"
)

// Polyline is one renderable line of a built route.
type Polyline struct {
	Points LineString    `json:"points"`
	Style  PolylineStyle `json:"style"`
	Risk   RiskRating    `json:"risk,omitempty"`
	// Segment is the index of the originating segment, or -1 for the
	// whole-route fallback.
	Segment int `json:"segment"`
}

// BuildResult is everything the map widget needs to render one route: the
// styled polylines, the aggregate bounding box for viewport fitting, and the
// count of segments that could not be resolved.
type BuildResult struct {
	Polylines      []Polyline `json:"polylines"`
	Bounds         *Bounds    `json:"bounds,omitempty"`
	FailedSegments int        `json:"failed_segments"`
	Status         string     `json:"status"`
}
