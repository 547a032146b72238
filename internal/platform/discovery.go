package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"orgreg/internal/log"
)

// discoveryResponse is the body of the discovery endpoint.
type discoveryResponse struct {
	APIBaseURL string `json:"api_base_url"`
}

// Resolve queries the discovery endpoint for the API base URL and pins it
// on the client. Submissions stay guarded until this succeeds (or the base
// URL is configured directly).
func (c *Client) Resolve(ctx context.Context, discoveryURL string) (string, error) {
	log.Info(log.CatDiscovery, "resolving API base URL", "url", discoveryURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return "", NewDiscoveryFailedError("building discovery request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.ErrorErr(log.CatDiscovery, "discovery request failed", err, "url", discoveryURL)
		return "", NewDiscoveryFailedError("querying discovery endpoint", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error(log.CatDiscovery, "discovery returned unexpected status", "status", resp.StatusCode)
		return "", NewDiscoveryFailedError(
			fmt.Sprintf("discovery endpoint returned status %d", resp.StatusCode), nil)
	}

	var decoded discoveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", NewDiscoveryFailedError("decoding discovery response", err)
	}

	if decoded.APIBaseURL == "" {
		return "", NewDiscoveryFailedError("discovery response has no api_base_url", nil)
	}
	if u, err := url.Parse(decoded.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", NewDiscoveryFailedError(
			fmt.Sprintf("discovery returned an invalid base URL %q", decoded.APIBaseURL), err)
	}

	c.SetBaseURL(decoded.APIBaseURL)
	log.Info(log.CatDiscovery, "API base URL resolved", "base_url", c.BaseURL())
	return c.BaseURL(), nil
}
