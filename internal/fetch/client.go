package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/logging"
)

const defaultUserAgent = "lyricfetch/1.0"

// Client is a rate-limited HTTP client for a single lyric site, with a
// disk-backed page cache in front of it.
type Client struct {
	site    string
	host    string
	http    *http.Client
	limiter *rate.Limiter
	headers map[string]string
	cache   *cache.PageCache
	now     func() time.Time
}

// NewClient creates a client for the given site base URL. Requests are
// limited to one per second.
func NewClient(site string, pageCache *cache.PageCache) (*Client, error) {
	u, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", site, err)
	}

	return &Client{
		site:    strings.TrimRight(site, "/"),
		host:    u.Host,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		headers: map[string]string{"User-Agent": defaultUserAgent},
		cache:   pageCache,
		now:     time.Now,
	}, nil
}

// SetHeaders replaces the headers sent with every request.
func (c *Client) SetHeaders(headers map[string]string) {
	c.headers = headers
}

// Host returns the site's host name.
func (c *Client) Host() string {
	return c.host
}

// URLFor returns the absolute URL for an endpoint on this site.
func (c *Client) URLFor(endpoint string) string {
	return c.site + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqURL := c.URLFor(endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", reqURL, err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	logging.Debug("GET %s", reqURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", reqURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request to %s returned %s", reqURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response from %s: %w", reqURL, err)
	}
	return string(body), nil
}

// GetPage fetches a song page, caching it indefinitely under a stable key.
func (c *Client) GetPage(ctx context.Context, endpoint string, params url.Values) (string, error) {
	key := cache.Key(c.host, endpoint, params)
	if page, ok := c.cache.Get(cache.PrefixPage, key); ok {
		return page, nil
	}

	page, err := c.get(ctx, endpoint, params)
	if err != nil {
		return "", err
	}
	if err := c.cache.Put(cache.PrefixPage, key, page); err != nil {
		logging.Warning("Failed to cache page %s: %v", endpoint, err)
	}
	return page, nil
}

// GetSearch fetches a search results page, cached under a dated key so
// results refresh daily.
func (c *Client) GetSearch(ctx context.Context, endpoint string, params url.Values) (string, error) {
	return c.getDated(ctx, cache.PrefixSearch, endpoint, params)
}

// GetIndex fetches an artist index page, cached under a dated key.
func (c *Client) GetIndex(ctx context.Context, endpoint string) (string, error) {
	return c.getDated(ctx, cache.PrefixIndex, endpoint, nil)
}

func (c *Client) getDated(ctx context.Context, prefix, endpoint string, params url.Values) (string, error) {
	keyEndpoint := endpoint
	if len(params) > 0 {
		keyEndpoint += "?" + params.Encode()
	}
	key := cache.DatedKey(c.host, keyEndpoint, c.now())
	if page, ok := c.cache.Get(prefix, key); ok {
		return page, nil
	}

	page, err := c.get(ctx, endpoint, params)
	if err != nil {
		return "", err
	}
	if err := c.cache.Put(prefix, key, page); err != nil {
		logging.Warning("Failed to cache %s page %s: %v", prefix, endpoint, err)
	}
	return page, nil
}
