// Package photon implements ports.PlaceSearcher against a Photon geocoding
// server (the Komoot OpenStreetMap geocoder API).
package photon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/retry"
)

var errServerStatus = errors.New("photon: server error")

// Client queries a Photon instance. Every search is clamped to the UK/Ireland
// envelope via the bbox parameter, so the server never returns candidates the
// resolver would discard anyway.
type Client struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
}

// New creates a Client for the given base URL, e.g. "https://photon.komoot.io".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		policy:  retry.Default,
	}
}

// WithPolicy overrides the retry policy and returns the client.
func (c *Client) WithPolicy(p retry.Policy) *Client {
	c.policy = p
	return c
}

type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lng, lat]
		} `json:"geometry"`
		Properties struct {
			Name     string `json:"name"`
			Street   string `json:"street"`
			City     string `json:"city"`
			Postcode string `json:"postcode"`
			State    string `json:"state"`
		} `json:"properties"`
	} `json:"features"`
}

// Search returns up to limit candidate places for a free-text query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("bbox", fmt.Sprintf("%g,%g,%g,%g",
		domain.EnvelopeMinLng, domain.EnvelopeMinLat, domain.EnvelopeMaxLng, domain.EnvelopeMaxLat))
	endpoint := c.baseURL + "/api/?" + q.Encode()

	var body []byte
	err := retry.Do(ctx, c.policy, transient, func(ctx context.Context) error {
		var err error
		body, err = c.get(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("photon: decode response: %w", err)
	}

	places := make([]domain.Place, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		places = append(places, domain.Place{
			Location: domain.GeoPoint{Lat: f.Geometry.Coordinates[1], Lng: f.Geometry.Coordinates[0]},
			Name:     displayName(f.Properties.Name, f.Properties.Street, f.Properties.City, f.Properties.Postcode, f.Properties.State),
		})
	}
	return places, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", errServerStatus, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photon: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// transient reports whether the request is worth retrying: 5xx responses and
// network-level failures. 4xx means the query itself is bad.
func transient(err error) bool {
	if errors.Is(err, errServerStatus) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}

func displayName(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
