package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/ports"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/geospatial"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/metrics"
)

// GeocodeCacheVersion tags every cached geocode entry. Bumping it invalidates
// all prior entries lazily: a version mismatch is detected, and the stale
// entry dropped, on the next lookup of its key.
const GeocodeCacheVersion = 3

// geocodeEntry is the persisted shape of one resolved label.
type geocodeEntry struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"displayName"`
	Version     int     `json:"ver"`
}

// GeocodeOptions tunes the geocoding layer.
type GeocodeOptions struct {
	// CacheVersion overrides GeocodeCacheVersion.
	CacheVersion int
	// Throttle is slept before every provider call to avoid rate-limiting.
	Throttle time.Duration
	// MaxHintDistanceKm is the ambiguity guard: with a hint supplied, a
	// nearest candidate farther than this fails the lookup rather than
	// letting a same-named place in another region hijack the chain.
	MaxHintDistanceKm float64
}

// DefaultGeocodeOptions returns production tuning.
func DefaultGeocodeOptions() GeocodeOptions {
	return GeocodeOptions{
		CacheVersion:      GeocodeCacheVersion,
		Throttle:          200 * time.Millisecond,
		MaxHintDistanceKm: 120,
	}
}

// GeocodeService resolves free-text labels to envelope-valid coordinates via
// the place-search provider, with a versioned label-keyed cache in front.
// The in-process map is authoritative; a CacheService, when configured, holds
// a write-through copy that survives restarts. Reads and writes are critical
// sections: builds for different routes may run concurrently.
type GeocodeService struct {
	places ports.PlaceSearcher
	cache  ports.CacheService
	opts   GeocodeOptions

	mu  sync.Mutex
	mem map[string]geocodeEntry
}

// NewGeocodeService creates a GeocodeService. cache may be nil.
func NewGeocodeService(places ports.PlaceSearcher, cache ports.CacheService, opts GeocodeOptions) *GeocodeService {
	if opts.CacheVersion == 0 {
		opts.CacheVersion = GeocodeCacheVersion
	}
	return &GeocodeService{
		places: places,
		cache:  cache,
		opts:   opts,
		mem:    make(map[string]geocodeEntry),
	}
}

// Geocode resolves a label to a coordinate inside the geographic envelope.
// With a hint, the candidate nearest the hint wins; without one, the first
// surviving candidate does. The cache key is the trimmed-lowercased raw
// label, so repeat lookups of the same label cost no network call.
func (s *GeocodeService) Geocode(ctx context.Context, label string, hint *domain.GeoPoint) (domain.GeoPoint, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return domain.GeoPoint{}, &domain.GeocodeError{Query: label, Reason: "empty query"}
	}

	if p, ok := s.cached(ctx, key); ok {
		metrics.CacheHits.WithLabelValues("geocode").Inc()
		return p, nil
	}
	metrics.CacheMisses.WithLabelValues("geocode").Inc()

	if err := throttle(ctx, s.opts.Throttle); err != nil {
		return domain.GeoPoint{}, err
	}

	query := normalizeQuery(label)
	candidates, err := s.places.Search(ctx, query, 5)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, fmt.Errorf("place search %q: %w", query, err)
	}

	inBounds := candidates[:0]
	for _, c := range candidates {
		if domain.InEnvelope(c.Location) {
			inBounds = append(inBounds, c)
		}
	}
	if len(inBounds) == 0 {
		metrics.GeocodeLookups.WithLabelValues("no_candidate").Inc()
		return domain.GeoPoint{}, &domain.GeocodeError{Query: query, Reason: "no candidate inside geographic envelope"}
	}

	chosen := inBounds[0]
	if hint != nil {
		best, bestKm := inBounds[0], geospatial.HaversineKm(hint.Lat, hint.Lng, inBounds[0].Location.Lat, inBounds[0].Location.Lng)
		for _, c := range inBounds[1:] {
			if km := geospatial.HaversineKm(hint.Lat, hint.Lng, c.Location.Lat, c.Location.Lng); km < bestKm {
				best, bestKm = c, km
			}
		}
		if bestKm > s.opts.MaxHintDistanceKm {
			metrics.GeocodeLookups.WithLabelValues("hint_distance").Inc()
			return domain.GeoPoint{}, &domain.GeocodeError{
				Query:  query,
				Reason: fmt.Sprintf("nearest candidate %.0f km from chain anchor (limit %.0f km)", bestKm, s.opts.MaxHintDistanceKm),
			}
		}
		chosen = best
	}

	if !domain.InEnvelope(chosen.Location) {
		metrics.GeocodeLookups.WithLabelValues("out_of_bounds").Inc()
		return domain.GeoPoint{}, &domain.GeocodeError{Query: query, Reason: (&domain.BoundsViolation{Point: chosen.Location}).Error()}
	}

	s.store(ctx, key, geocodeEntry{
		Lat:         chosen.Location.Lat,
		Lng:         chosen.Location.Lng,
		DisplayName: chosen.Name,
		Version:     s.opts.CacheVersion,
	})
	metrics.GeocodeLookups.WithLabelValues("ok").Inc()
	return chosen.Location, nil
}

// cached looks the key up in the in-process map, then the write-through
// backend. Entries with a stale version or out-of-envelope coordinates are
// dropped and treated as a miss.
func (s *GeocodeService) cached(ctx context.Context, key string) (domain.GeoPoint, bool) {
	s.mu.Lock()
	e, ok := s.mem[key]
	if ok {
		if e.Version != s.opts.CacheVersion {
			delete(s.mem, key)
			ok = false
		}
	}
	s.mu.Unlock()
	if ok {
		p := domain.GeoPoint{Lat: e.Lat, Lng: e.Lng}
		if domain.InEnvelope(p) {
			return p, true
		}
	}

	if s.cache == nil {
		return domain.GeoPoint{}, false
	}
	data, err := s.cache.Get(ctx, geocodeCacheKey(key))
	if err != nil {
		return domain.GeoPoint{}, false
	}
	if err := json.Unmarshal(data, &e); err != nil {
		_ = s.cache.Delete(ctx, geocodeCacheKey(key))
		return domain.GeoPoint{}, false
	}
	p := domain.GeoPoint{Lat: e.Lat, Lng: e.Lng}
	if e.Version != s.opts.CacheVersion || !domain.InEnvelope(p) {
		_ = s.cache.Delete(ctx, geocodeCacheKey(key))
		return domain.GeoPoint{}, false
	}

	s.mu.Lock()
	s.mem[key] = e
	s.mu.Unlock()
	return p, true
}

func (s *GeocodeService) store(ctx context.Context, key string, e geocodeEntry) {
	s.mu.Lock()
	s.mem[key] = e
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	// 30 days: geocoding results for place labels are effectively static.
	if err := s.cache.Set(ctx, geocodeCacheKey(key), data, 30*24*3600); err != nil {
		slog.Warn("geocode cache write failed", "key", key, "error", err)
	}
}

func geocodeCacheKey(key string) string {
	return "geocode:" + key
}

var (
	nearWordRe   = regexp.MustCompile(`(?i)\bnear\b`)
	junctionAbRe = regexp.MustCompile(`(?i)\bjnc?\b`)
	rdbtAbRe     = regexp.MustCompile(`(?i)\b(?:rdbt|r-a)\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// normalizeQuery rewrites a raw label into place-search-friendly text:
// slashes become spaces, "near" is dropped, common junction/roundabout
// abbreviations are expanded, and whitespace is collapsed.
func normalizeQuery(label string) string {
	q := strings.ReplaceAll(label, "/", " ")
	q = nearWordRe.ReplaceAllString(q, " ")
	q = junctionAbRe.ReplaceAllString(q, "Junction")
	q = rdbtAbRe.ReplaceAllString(q, "Roundabout")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(q, " "))
}

// throttle sleeps before a provider call, honouring cancellation.
func throttle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
