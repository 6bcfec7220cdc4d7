package usecases

import (
	"regexp"
	"strings"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
)

// Route sheets are typed up from driver notes, so endpoint labels mix real
// place references ("Newmarket CB8 7NR") with turn-by-turn noise ("take 2nd
// exit at roundabout"). The classifier decides which is which and extracts
// road designations usable as geocoding queries.

var (
	// Full UK postcode, or an outward-only district with a two-letter area
	// ("LE1"). Single-letter outward districts are excluded: they collide
	// with road designations (M1 Manchester vs the M1 motorway).
	postcodeRe = regexp.MustCompile(`(?i)\b(?:[A-Z]{1,2}\d[A-Z0-9]?\s*\d[A-Z]{2}|[A-Z]{2}\d{1,2}[A-Z]?)\b`)

	motionVerbRe = regexp.MustCompile(`(?i)^\s*(?:at|take|then|turn|continue|bear|keep|follow|exit|slip)\b`)
	ordinalRe    = regexp.MustCompile(`(?i)\b(?:1st|2nd|3rd|4th|5th)\b`)
	junctionRe   = regexp.MustCompile(`(?i)\b(?:roundabout|rdbt|r-a|flyover)\b`)
	actionRe     = regexp.MustCompile(`(?i)\b(?:exit|take|onto|into)\b`)

	// UK road designation, optionally a pair ("A1/M1", "A1/14").
	roadTokenRe = regexp.MustCompile(`(?i)\b([AM])(\d{1,3})(?:\s*/\s*([AM])?(\d{1,3}))?\b`)
	roadOnlyRe  = regexp.MustCompile(`(?i)^[AM]\d{1,3}(?:\s*/\s*[AM]?\d{1,3})?$`)
)

// IsInstructionLike reports whether a label is turn-by-turn instruction noise
// rather than a real place reference. Anything containing a postcode-shaped
// substring is always treated as a real anchor.
func IsInstructionLike(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" {
		return true
	}
	if postcodeRe.MatchString(label) {
		return false
	}
	if motionVerbRe.MatchString(label) {
		return true
	}
	if ordinalRe.MatchString(label) && junctionRe.MatchString(label) && actionRe.MatchString(label) {
		return true
	}
	return false
}

// ExtractRoadToken returns the normalized UK road designation found in the
// label ("A1", "M25", "A1/M1"), or "" when there is none.
func ExtractRoadToken(label string) string {
	m := roadTokenRe.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	tok := strings.ToUpper(m[1]) + m[2]
	if m[4] != "" {
		tok += "/" + strings.ToUpper(m[3]) + m[4]
	}
	return tok
}

// IsRoadOnlyLabel reports whether the entire label is a bare road
// designation. Such labels are too ambiguous to geocode standalone and are
// never passed to the geocoder directly.
func IsRoadOnlyLabel(label string) bool {
	return roadOnlyRe.MatchString(strings.TrimSpace(label))
}

// EffectiveLabel decides what text, if any, should be geocoded for one
// segment endpoint. A road-only label yields "" (forcing the resolver's
// chain-anchor fallback). Instruction noise is replaced by its road token, by
// the route-level start/end anchor at the sheet boundaries, or by the
// adjacent segment's opposite-direction label. Anything else passes through
// verbatim.
func EffectiveLabel(route *domain.Route, index int, end domain.SegmentEnd) string {
	seg := &route.Segments[index]
	label := strings.TrimSpace(seg.EndLabel(end))

	if IsRoadOnlyLabel(label) {
		return ""
	}
	if !IsInstructionLike(label) {
		return label
	}
	if tok := ExtractRoadToken(label); tok != "" {
		return tok
	}

	last := len(route.Segments) - 1
	switch {
	case end == domain.EndFrom && index == 0:
		return route.StartQuery()
	case end == domain.EndTo && index == last:
		return route.EndQuery()
	}

	// Substitute the neighbouring segment's facing label: the previous
	// segment's "to" is the same junction as this segment's "from".
	var neighbour string
	switch {
	case end == domain.EndFrom && index > 0:
		neighbour = strings.TrimSpace(route.Segments[index-1].To)
	case end == domain.EndTo && index < last:
		neighbour = strings.TrimSpace(route.Segments[index+1].From)
	default:
		return ""
	}

	if !IsRoadOnlyLabel(neighbour) && !IsInstructionLike(neighbour) {
		return neighbour
	}
	return ExtractRoadToken(neighbour)
}
