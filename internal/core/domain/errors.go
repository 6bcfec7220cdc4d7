package domain

import (
	"errors"
	"fmt"
)

// ErrMissingLabel is returned when a segment endpoint has no usable label, no
// coordinate override, and no chain anchor to continue from.
var ErrMissingLabel = errors.New("no label, override, or chain anchor for endpoint")

// LabelError reports text that cannot be resolved: instruction noise or a
// road-only designation too ambiguous to geocode.
type LabelError struct {
	Label  string
	Reason string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("unresolvable label %q: %s", e.Label, e.Reason)
}

// GeocodeError reports a failed place lookup: no candidate inside the
// geographic envelope, or every candidate too far from the chain hint.
type GeocodeError struct {
	Query  string
	Reason string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocode %q: %s", e.Query, e.Reason)
}

// BoundsViolation reports a coordinate outside the geographic envelope. Such
// coordinates are rejected before they reach any caller.
type BoundsViolation struct {
	Point GeoPoint
}

func (e *BoundsViolation) Error() string {
	return fmt.Sprintf("coordinate (%.5f, %.5f) outside geographic envelope", e.Point.Lat, e.Point.Lng)
}

// UnrealisticJump reports segment endpoints implausibly far apart, almost
// certainly a bad geocoding match.
type UnrealisticJump struct {
	From       GeoPoint
	To         GeoPoint
	DistanceKm float64
}

func (e *UnrealisticJump) Error() string {
	return fmt.Sprintf("segment endpoints %.0f km apart exceed sanity threshold", e.DistanceKm)
}
