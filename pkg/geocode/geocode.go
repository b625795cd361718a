// Package geocode turns coordinates into street addresses using a
// Nominatim-compatible reverse geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"jamsession/internal/util"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "jamsession-client/1.0"
)

// Limiter throttles outgoing requests. Nominatim's usage policy allows one
// request per second.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Address is the part of a reverse geocoding result that gets displayed.
type Address struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	Village     string `json:"village"`
	City        string `json:"city"`
	Town        string `json:"town"`
}

// Locality returns the village, city or town, in that order of preference.
func (a Address) Locality() string {
	for _, s := range []string{a.Village, a.City, a.Town} {
		if s != "" {
			return s
		}
	}
	return ""
}

// String formats "road, number, city" with placeholders for missing parts.
func (a Address) String() string {
	return strings.Join([]string{
		orDefault(a.Road, "Unknown road"),
		orDefault(a.HouseNumber, "No number"),
		orDefault(a.Locality(), "Unknown city"),
	}, ", ")
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Limiter   Limiter
}

// Client calls the reverse geocoding endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	limiter    Limiter
	httpClient *http.Client
}

// NewClient builds a client. Without a limiter it allows one request per
// second.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 1)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   base,
		userAgent: ua,
		limiter:   limiter,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport("geocoder", nil),
		},
	}
}

// Reverse resolves a coordinate pair to an address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Address{}, fmt.Errorf("geocode throttle: %w", err)
	}
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Address{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("reverse geocode: status %d", resp.StatusCode)
	}
	var out struct {
		Address Address `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Address{}, fmt.Errorf("decode geocode response: %w", err)
	}
	return out.Address, nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
