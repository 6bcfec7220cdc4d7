package photon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/photon"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/retry"
)

const searchBody = `{
	"features": [
		{
			"geometry": {"coordinates": [0.4105, 52.2459]},
			"properties": {"name": "Newmarket", "city": "Newmarket", "postcode": "CB8", "state": "England"}
		},
		{
			"geometry": {"coordinates": []},
			"properties": {"name": "Broken"}
		}
	]
}`

func TestSearch_ParsesFeatures(t *testing.T) {
	var gotQuery, gotBBox, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotBBox = r.URL.Query().Get("bbox")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	client := photon.New(srv.URL)
	places, err := client.Search(context.Background(), "Newmarket CB8", 5)
	if err != nil {
		t.Fatal(err)
	}

	if gotQuery != "Newmarket CB8" || gotLimit != "5" {
		t.Errorf("query = %q, limit = %q", gotQuery, gotLimit)
	}
	if gotBBox != "-8.65,49.8,1.8,60.95" {
		t.Errorf("bbox = %q", gotBBox)
	}

	// The malformed feature is skipped.
	if len(places) != 1 {
		t.Fatalf("places = %d", len(places))
	}
	p := places[0]
	if p.Location.Lat != 52.2459 || p.Location.Lng != 0.4105 {
		t.Errorf("location = %+v", p.Location)
	}
	if p.Name != "Newmarket, Newmarket, CB8, England" {
		t.Errorf("name = %q", p.Name)
	}
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	client := photon.New(srv.URL).WithPolicy(retry.Policy{MaxAttempts: 3})
	if _, err := client.Search(context.Background(), "anywhere", 5); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want a single retry", calls)
	}
}

func TestSearch_ClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := photon.New(srv.URL).WithPolicy(retry.Policy{MaxAttempts: 3})
	if _, err := client.Search(context.Background(), "", 5); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want no retries", calls)
	}
}
