// Package census fetches county reference data from the Census Bureau API.
// The designation scrapers use it to resolve county names from source
// pages into canonical names and FIPS codes.
package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/georisk/georisk/internal/geo"
	"github.com/georisk/georisk/internal/model"
)

// DefaultBaseURL is the Census Bureau API endpoint.
const DefaultBaseURL = "https://api.census.gov"

// ErrRequestFailed indicates the Census API could not be reached or
// returned a non-success status.
var ErrRequestFailed = errors.New("census api request failed")

// Client queries the Census Bureau API for county listings. The zero
// value is not usable; construct with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header sent with requests.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a Census API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Counties returns every county in a state from the 2020 decennial
// dataset. Rows carry the state code, full state name, combined
// five-digit FIPS code, and the cleaned county name.
func (c *Client) Counties(ctx context.Context, stateCode string) ([]model.County, error) {
	stateFIPS, ok := geo.StateFIPS(stateCode)
	if !ok {
		return nil, fmt.Errorf("unknown state code %q: %w", stateCode, ErrRequestFailed)
	}
	stateName, _ := geo.StateName(stateCode)

	url := fmt.Sprintf("%s/data/2020/dec/pl?get=NAME&for=county:*&in=state:%s", c.baseURL, stateFIPS)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build census request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch counties for %s: %w: %w", stateCode, err, ErrRequestFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch counties for %s: status %d: %w", stateCode, resp.StatusCode, ErrRequestFailed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read census response for %s: %w: %w", stateCode, err, ErrRequestFailed)
	}

	// The API returns a JSON array of rows; the first row is the header:
	// [["NAME","state","county"],["Harris County, Texas","48","201"],...]
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse census response for %s: %w: %w", stateCode, err, ErrRequestFailed)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	counties := make([]model.County, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 3 {
			continue
		}
		counties = append(counties, model.County{
			StateID:    stateCode,
			StateName:  stateName,
			CountyFIPS: stateFIPS + row[2],
			CountyName: geo.NormalizeCountyName(row[0], stateName),
		})
	}
	return counties, nil
}
