package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/yllada/mullvad-ping/common"
)

// maxCatalogSize bounds the response body; the real list is well under 2MB.
const maxCatalogSize = 32 << 20

// Client downloads the relay list.
type Client struct {
	// URL is the relay list endpoint.
	URL string
	// RelayDomain completes hostnames that come without an FQDN.
	RelayDomain string
	// HTTP is the client used for the request. nil means a client with
	// common.CatalogFetchTimeout.
	HTTP *http.Client
}

// NewClient creates a client for the given endpoint.
func NewClient(url, relayDomain string) *Client {
	return &Client{
		URL:         url,
		RelayDomain: relayDomain,
		HTTP:        &http.Client{Timeout: common.CatalogFetchTimeout},
	}
}

// Fetch downloads and decodes the relay list.
// Every failure wraps common.ErrCatalogFetch; there is no retry.
func (c *Client) Fetch(ctx context.Context) ([]Server, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: common.CatalogFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCatalogFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.AppName)

	common.LogDebug("Fetching relay list from %s", c.URL)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCatalogFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: unexpected status %s", common.ErrCatalogFetch, resp.Status)
	}

	var servers []Server
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogSize)).Decode(&servers); err != nil {
		return nil, fmt.Errorf("%w: malformed relay list: %v", common.ErrCatalogFetch, err)
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrCatalogFetch, common.ErrEmptyCatalog)
	}

	withDomain(servers, c.RelayDomain)

	common.LogInfo("Fetched %d relays", len(servers))
	return servers, nil
}
