package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// NetworkLocationPath is the endpoint, relative to the base URL, that resolves the caller's location.
const NetworkLocationPath = "/api/location/ip/"

// HTTPNetworkLocator queries a location-by-address endpoint over HTTP.
type HTTPNetworkLocator struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPNetworkLocator creates a locator for the service at baseURL. A nil client uses http.DefaultClient.
func NewHTTPNetworkLocator(baseURL string, httpClient *http.Client) *HTTPNetworkLocator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPNetworkLocator{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Locate issues a single GET and decodes the {latitude, longitude, city} body of a 2xx response.
func (c *HTTPNetworkLocator) Locate(ctx context.Context) (NetworkLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+NetworkLocationPath, nil)
	if err != nil {
		return NetworkLocation{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NetworkLocation{}, fmt.Errorf("failed to fetch: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NetworkLocation{}, fmt.Errorf("fetch returned status %d: %s", resp.StatusCode, string(body))
	}

	var loc NetworkLocation
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return NetworkLocation{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return loc, nil
}
