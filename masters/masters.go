// Package masters fetches the platform's reference data ("masters" —
// religions, castes, occupations and the like) through the authenticated
// API client, with a small in-process TTL cache so list screens do not
// refetch static data on every render.
package masters

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/saptapadi/admin-gateway/apiclient"
)

// DefaultTTL is how long a fetched master list is served from cache.
const DefaultTTL = 10 * time.Minute

// Getter is the slice of the API client this package needs.
type Getter interface {
	Get(ctx context.Context, path string) (*apiclient.Response, error)
}

// Item is one reference-data entry.
type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    []Item `json:"data"`
}

type cacheEntry struct {
	items     []Item
	fetchedAt time.Time
}

// Client reads master lists by type with caching. Errors from the API pass
// through; the cache never serves an entry past its TTL.
type Client struct {
	api     Getter
	ttl     time.Duration
	nowTime func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// Option modifies a Client instance.
type Option func(*Client)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// New creates a masters client. A non-positive ttl falls back to DefaultTTL.
func New(api Getter, ttl time.Duration, options ...Option) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Client{
		api:     api,
		ttl:     ttl,
		nowTime: time.Now,
		cache:   make(map[string]cacheEntry),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ByType returns the master list for masterType, from cache when fresh.
func (c *Client) ByType(ctx context.Context, masterType string) ([]Item, error) {
	if masterType == "" {
		return nil, errors.New("[Client.ByType] master type is required")
	}

	c.mu.Lock()
	entry, ok := c.cache[masterType]
	c.mu.Unlock()
	if ok && c.nowTime().Sub(entry.fetchedAt) < c.ttl {
		return entry.items, nil
	}

	resp, err := c.api.Get(ctx, fmt.Sprintf("/api/masters/%s", masterType))
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.ByType] fetching %s masters", masterType)
	}
	if !resp.OK() {
		return nil, errors.Errorf("[Client.ByType] %s masters returned status %d", masterType, resp.StatusCode)
	}

	var parsed envelope
	if err := resp.DecodeJSON(&parsed); err != nil {
		return nil, errors.Wrapf(err, "[Client.ByType] decoding %s masters", masterType)
	}
	if !parsed.Success {
		return nil, errors.Errorf("[Client.ByType] %s masters: %s", masterType, parsed.Message)
	}

	c.mu.Lock()
	c.cache[masterType] = cacheEntry{items: parsed.Data, fetchedAt: c.nowTime()}
	c.mu.Unlock()

	return parsed.Data, nil
}

// Invalidate drops the cached list for masterType, forcing a refetch.
func (c *Client) Invalidate(masterType string) {
	c.mu.Lock()
	delete(c.cache, masterType)
	c.mu.Unlock()
}

// InvalidateAll drops every cached list.
func (c *Client) InvalidateAll() {
	c.mu.Lock()
	c.cache = make(map[string]cacheEntry)
	c.mu.Unlock()
}
