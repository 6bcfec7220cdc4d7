package osrm_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/osrm"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/retry"
)

const routeBody = `{
	"code": "Ok",
	"routes": [
		{"geometry": {"coordinates": [[0.4105, 52.2459], [0.1, 52.3], [-0.1827, 52.3309]]}}
	]
}`

func TestRoute_ParsesGeometry(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(routeBody))
	}))
	defer srv.Close()

	client := osrm.New(srv.URL)
	line, err := client.Route(context.Background(),
		domain.GeoPoint{Lat: 52.2459, Lng: 0.4105},
		domain.GeoPoint{Lat: 52.3309, Lng: -0.1827})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(gotPath, "/route/v1/driving/0.410500,52.245900;-0.182700,52.330900") {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "overview=full&geometries=geojson" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(line) != 3 {
		t.Fatalf("line = %v", line)
	}
	if got := line.First(); got.Lat != 52.2459 || got.Lng != 0.4105 {
		t.Errorf("first = %+v", got)
	}
}

func TestRoute_NoRouteCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer srv.Close()

	client := osrm.New(srv.URL)
	_, err := client.Route(context.Background(), domain.GeoPoint{Lat: 52, Lng: 0}, domain.GeoPoint{Lat: 53, Lng: -1})
	if !errors.Is(err, osrm.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestRoute_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(routeBody))
	}))
	defer srv.Close()

	client := osrm.New(srv.URL).WithPolicy(retry.Policy{MaxAttempts: 3})
	_, err := client.Route(context.Background(), domain.GeoPoint{Lat: 52, Lng: 0}, domain.GeoPoint{Lat: 53, Lng: -1})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("calls = %d", calls)
	}
}

func TestRoute_SinglePointGeometryRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "Ok", "routes": [{"geometry": {"coordinates": [[0.1, 52.2]]}}]}`))
	}))
	defer srv.Close()

	client := osrm.New(srv.URL)
	_, err := client.Route(context.Background(), domain.GeoPoint{Lat: 52, Lng: 0}, domain.GeoPoint{Lat: 53, Lng: -1})
	if err == nil {
		t.Fatal("expected an error for a single-point geometry")
	}
}
