// Package osrm implements ports.RoutingService against an OSRM routing
// server's route service.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/retry"
)

var errServerStatus = errors.New("osrm: server error")

// ErrNoRoute is returned when OSRM cannot connect the two points.
var ErrNoRoute = errors.New("osrm: no route found")

// Client queries an OSRM instance for driving directions.
type Client struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
}

// New creates a Client for the given base URL, e.g.
// "https://router.project-osrm.org".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		policy:  retry.Default,
	}
}

// WithPolicy overrides the retry policy and returns the client.
func (c *Client) WithPolicy(p retry.Policy) *Client {
	c.policy = p
	return c
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lng, lat] pairs
		} `json:"geometry"`
	} `json:"routes"`
}

// Route returns the road-following geometry between two points.
func (c *Client) Route(ctx context.Context, from, to domain.GeoPoint) (domain.LineString, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	var body []byte
	err := retry.Do(ctx, c.policy, transient, func(ctx context.Context) error {
		var err error
		body, err = c.get(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}

	var rr routeResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("osrm: decode response: %w", err)
	}
	if rr.Code != "Ok" || len(rr.Routes) == 0 {
		return nil, fmt.Errorf("%w (code %q)", ErrNoRoute, rr.Code)
	}

	line := domain.LineString(rr.Routes[0].Geometry.Coordinates)
	if !line.Valid() {
		return nil, fmt.Errorf("osrm: malformed geometry for %f,%f -> %f,%f", from.Lat, from.Lng, to.Lat, to.Lng)
	}
	return line, nil
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
	// OSRM reports "no route" as a 400 with a JSON code; let the caller read
	// the body in that case.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return nil, fmt.Errorf("osrm: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func transient(err error) bool {
	if errors.Is(err, errServerStatus) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}
