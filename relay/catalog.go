package relay

import (
	"context"
	"time"

	"github.com/yllada/mullvad-ping/common"
)

// Fetcher downloads the relay list.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Server, error)
}

// Catalog serves the relay list from the cache when it is fresh and from
// the API otherwise.
type Catalog struct {
	Fetcher Fetcher
	// Cache may be nil, which disables caching.
	Cache *Cache
	// TTL is the maximum age of a cached list. Zero disables reuse.
	TTL time.Duration
	// Refresh forces a download.
	Refresh bool
}

// Load returns the relay list. A download failure is fatal and is not
// retried; cache failures only produce warnings.
func (c *Catalog) Load(ctx context.Context) ([]Server, error) {
	if c.Cache != nil && !c.Refresh && c.TTL > 0 {
		servers, fresh, err := c.Cache.Load(ctx, c.TTL)
		switch {
		case err != nil:
			common.LogWarn("Ignoring relay cache: %v", err)
		case fresh:
			common.LogDebug("Using %d cached relays", len(servers))
			return servers, nil
		}
	}

	servers, err := c.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if c.Cache != nil {
		if err := c.Cache.Save(ctx, servers); err != nil {
			common.LogWarn("Failed to update relay cache: %v", err)
		}
	}
	return servers, nil
}
