package usecases_test

import (
	"testing"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/usecases"
)

func TestIsInstructionLike(t *testing.T) {
	cases := []struct {
		label string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"take the A14 westbound", true},
		{"Turn left onto the bypass", true},
		{"then follow signs", true},
		{"continue over flyover", true},
		{"bear right", true},
		{"at the 2nd exit of the roundabout onto the slip road", true},
		{"Take 3rd exit at Rdbt onto A43", true},
		{"Newmarket CB8 7NR", false},
		{"Leicester LE1", false},
		// A postcode-shaped substring always wins, even after a motion verb.
		{"take the exit for Kettering NN15 6XU", false},
		{"Newmarket", false},
		{"Catthorpe Interchange", false},
		{"A1/A14 Junction", false},
	}
	for _, tc := range cases {
		if got := usecases.IsInstructionLike(tc.label); got != tc.want {
			t.Errorf("IsInstructionLike(%q) = %v, want %v", tc.label, got, tc.want)
		}
	}
}

func TestExtractRoadToken(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"take the a14 westbound", "A14"},
		{"M1 northbound", "M1"},
		{"A1/M1 interchange", "A1/M1"},
		{"A1/14 fork", "A1/14"},
		{"no roads here", ""},
		{"", ""},
		{"the A1499 bypass", ""}, // four digits is not a UK designation shape
	}
	for _, tc := range cases {
		if got := usecases.ExtractRoadToken(tc.label); got != tc.want {
			t.Errorf("ExtractRoadToken(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestIsRoadOnlyLabel(t *testing.T) {
	for _, label := range []string{"A14", "m25", " A1/M1 ", "A1/14"} {
		if !usecases.IsRoadOnlyLabel(label) {
			t.Errorf("IsRoadOnlyLabel(%q) = false, want true", label)
		}
	}
	for _, label := range []string{"A14 Junction 2", "Newmarket", "", "take A14"} {
		if usecases.IsRoadOnlyLabel(label) {
			t.Errorf("IsRoadOnlyLabel(%q) = true, want false", label)
		}
	}
}

func TestEffectiveLabel_RoadOnlyForcesFallback(t *testing.T) {
	route := &domain.Route{
		Segments: []domain.Segment{{Road: "A14", From: "Newmarket CB8 7NR", To: "A14"}},
	}
	if got := usecases.EffectiveLabel(route, 0, domain.EndTo); got != "" {
		t.Errorf("road-only label should yield \"\", got %q", got)
	}
}

func TestEffectiveLabel_Verbatim(t *testing.T) {
	route := &domain.Route{
		Segments: []domain.Segment{{From: "Newmarket CB8 7NR", To: "Catthorpe Interchange"}},
	}
	if got := usecases.EffectiveLabel(route, 0, domain.EndFrom); got != "Newmarket CB8 7NR" {
		t.Errorf("got %q", got)
	}
	if got := usecases.EffectiveLabel(route, 0, domain.EndTo); got != "Catthorpe Interchange" {
		t.Errorf("got %q", got)
	}
}

func TestEffectiveLabel_InstructionWithRoadToken(t *testing.T) {
	route := &domain.Route{
		Segments: []domain.Segment{{From: "Kettering", To: "take the a43 north"}},
	}
	if got := usecases.EffectiveLabel(route, 0, domain.EndTo); got != "A43" {
		t.Errorf("got %q, want A43", got)
	}
}

func TestEffectiveLabel_BoundarySubstitution(t *testing.T) {
	route := &domain.Route{
		StartLabel:    "Newmarket",
		StartPostcode: "CB8 7NR",
		EndLabel:      "Leicester",
		Segments: []domain.Segment{
			{From: "turn left at the depot", To: "Kettering"},
			{From: "Kettering", To: "then follow signs"},
		},
	}
	// First segment's from: route start postcode wins over the label.
	if got := usecases.EffectiveLabel(route, 0, domain.EndFrom); got != "CB8 7NR" {
		t.Errorf("first from = %q, want CB8 7NR", got)
	}
	// Last segment's to: no end postcode, so the end label.
	if got := usecases.EffectiveLabel(route, 1, domain.EndTo); got != "Leicester" {
		t.Errorf("last to = %q, want Leicester", got)
	}
}

func TestEffectiveLabel_NeighbourSubstitution(t *testing.T) {
	route := &domain.Route{
		Segments: []domain.Segment{
			{From: "Newmarket CB8 7NR", To: "Huntingdon"},
			{From: "then take the slip road", To: "Kettering"},
			{From: "turn right", To: "Corby"},
		},
	}
	// Middle segment's instruction-like from borrows the previous to.
	if got := usecases.EffectiveLabel(route, 1, domain.EndFrom); got != "Huntingdon" {
		t.Errorf("got %q, want Huntingdon", got)
	}
}

func TestEffectiveLabel_NeighbourRecheckedFallsBackToRoadToken(t *testing.T) {
	route := &domain.Route{
		Segments: []domain.Segment{
			{From: "Newmarket CB8 7NR", To: "take the a14 exit"},
			{From: "continue ahead", To: "Kettering"},
		},
	}
	// The neighbour's to is itself instruction-like, so its road token is
	// used instead.
	if got := usecases.EffectiveLabel(route, 1, domain.EndFrom); got != "A14" {
		t.Errorf("got %q, want A14", got)
	}
}
