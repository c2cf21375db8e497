package irail

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"
)

// DefaultBaseURL is the public iRail endpoint.
const DefaultBaseURL = "https://api.irail.be"

const (
	defaultTimeout   = 25 * time.Second
	defaultLang      = "en"
	defaultUserAgent = "belgiantrain/1.0 (https://github.com/tjorim/belgiantrain)"
)

// ErrNotFound reports that the API had no answer for the request, e.g. an
// unknown vehicle ID or a liveboard with nothing departing.
var ErrNotFound = errors.New("irail: not found")

// StatusError reports a non-200 response from the API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("irail: HTTP %d from %s", e.Code, e.URL)
}

// Client fetches and decodes iRail API responses. Use New; the zero value
// has no HTTP client.
type Client struct {
	baseURL   string
	lang      string
	userAgent string
	hc        *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithLang sets the language of localized fields (en, nl, fr, de).
func WithLang(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithHTTP2 switches the client onto a dedicated HTTP/2 transport. The
// public endpoint serves h2; multiplexing keeps the poll loop on one
// connection instead of one per request.
func WithHTTP2() Option {
	return func(c *Client) {
		c.hc = &http.Client{
			Timeout: c.hc.Timeout,
			Transport: &http2.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		}
	}
}

// New returns a Client for the public iRail API.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		lang:      defaultLang,
		userAgent: defaultUserAgent,
		hc:        &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("format", "json")
	params.Set("lang", c.lang)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("irail: build request for %s: %w", path, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("irail: get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, URL: reqURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("irail: read %s: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("irail: decode %s: %w", path, err)
	}
	return nil
}

// Stations returns the full station list.
func (c *Client) Stations(ctx context.Context) ([]Station, error) {
	var raw wireStationsResponse
	if err := c.get(ctx, "/stations/", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]Station, 0, len(raw.Station))
	for _, s := range raw.Station {
		out = append(out, s.toStation())
	}
	return out, nil
}

// Liveboard returns the departure board of one station, identified by its
// iRail ID ("BE.NMBS.008812005") or standard name.
func (c *Client) Liveboard(ctx context.Context, station string) (*Liveboard, error) {
	params := url.Values{}
	params.Set("id", station)
	params.Set("arrdep", "departure")
	var raw wireLiveboardResponse
	if err := c.get(ctx, "/liveboard/", params, &raw); err != nil {
		return nil, err
	}
	return raw.toLiveboard(), nil
}

// Connections returns the next routing options between two stations.
func (c *Client) Connections(ctx context.Context, from, to string) ([]Connection, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	var raw wireConnectionsResponse
	if err := c.get(ctx, "/connections/", params, &raw); err != nil {
		return nil, err
	}
	out := make([]Connection, 0, len(raw.Connection))
	for _, conn := range raw.Connection {
		out = append(out, conn.toConnection())
	}
	return out, nil
}

// Vehicle returns one train and its stop list. The ID may carry the
// "BE.NMBS." prefix or not.
func (c *Client) Vehicle(ctx context.Context, id string) (*Vehicle, error) {
	params := url.Values{}
	params.Set("id", id)
	var raw wireVehicleResponse
	if err := c.get(ctx, "/vehicle/", params, &raw); err != nil {
		return nil, err
	}
	return raw.toVehicle(), nil
}

// Composition returns the carriage make-up of one train.
func (c *Client) Composition(ctx context.Context, id string) (*Composition, error) {
	params := url.Values{}
	params.Set("id", id)
	var raw wireCompositionResponse
	if err := c.get(ctx, "/composition/", params, &raw); err != nil {
		return nil, err
	}
	return raw.toComposition(), nil
}

// Disturbances returns the current disruption notices, newest first as
// served by the API.
func (c *Client) Disturbances(ctx context.Context) ([]Disturbance, error) {
	var raw wireDisturbancesResponse
	if err := c.get(ctx, "/disturbances/", nil, &raw); err != nil {
		return nil, err
	}
	return raw.toDisturbances(), nil
}
