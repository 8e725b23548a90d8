package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Geocoder resolves a free-form address to coordinates. Implementations
// are best-effort: a lookup that fails for any reason reports ok=false
// and the caller proceeds without coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, ok bool)
}

// NominatimClient geocodes addresses against a Nominatim endpoint.
// The public OSM instance enforces an absolute one-request-per-second
// limit, so calls are serialized and spaced by MinInterval.
type NominatimClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	minInterval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewNominatimClient creates a geocoding client.
func NewNominatimClient(baseURL, userAgent string, timeout, minInterval time.Duration) *NominatimClient {
	return &NominatimClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		userAgent:   userAgent,
		minInterval: minInterval,
	}
}

var _ Geocoder = (*NominatimClient)(nil)

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves address to coordinates. It reports ok=false on empty
// input, transport errors, non-200 responses and empty result sets.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	if address == "" {
		return 0, 0, false
	}

	c.throttle()

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, params.Encode()), nil)
	if err != nil {
		return 0, 0, false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("geocode: request for %q failed: %v", address, err)
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("geocode: %q returned status %d", address, resp.StatusCode)
		return 0, 0, false
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil || len(results) == 0 {
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// throttle blocks until minInterval has passed since the previous request.
func (c *NominatimClient) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := c.minInterval - time.Since(c.last); wait > 0 {
		time.Sleep(wait)
	}
	c.last = time.Now()
}
