package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.HandlerFunc) (*NominatimClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewNominatimClient(server.URL, "dispatch-test/1.0", 2*time.Second, 0)
	return client, server
}

func TestGeocode_ParsesFirstResult(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "Tverskaya 1, Moscow" {
			t.Errorf("unexpected query %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"55.7558","lon":"37.6173"},{"lat":"1","lon":"1"}]`))
	})
	defer server.Close()

	lat, lng, ok := client.Geocode(context.Background(), "Tverskaya 1, Moscow")
	if !ok {
		t.Fatal("expected a successful lookup")
	}
	if lat != 55.7558 || lng != 37.6173 {
		t.Errorf("got (%v, %v)", lat, lng)
	}
}

func TestGeocode_EmptyAddress(t *testing.T) {
	client := NewNominatimClient("http://invalid.localhost", "ua", time.Second, 0)
	if _, _, ok := client.Geocode(context.Background(), ""); ok {
		t.Fatal("empty address must not geocode")
	}
}

func TestGeocode_NoResults(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	defer server.Close()

	if _, _, ok := client.Geocode(context.Background(), "nowhere"); ok {
		t.Fatal("empty result set must report ok=false")
	}
}

func TestGeocode_ServerError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer server.Close()

	if _, _, ok := client.Geocode(context.Background(), "anywhere"); ok {
		t.Fatal("non-200 response must report ok=false")
	}
}
