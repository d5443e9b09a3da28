package quote

import (
	"context"
	"time"

	"github.com/etnz/tradebook"
	"github.com/patrickmn/go-cache"
)

// Cache memoizes the quotes of a source for a bounded time. It is an explicit
// object owned by the caller, not a process wide cache.
type Cache struct {
	src   tradebook.PriceSource
	store *cache.Cache
}

// NewCache wraps src, keeping its quotes for ttl.
func NewCache(src tradebook.PriceSource, ttl time.Duration) *Cache {
	return &Cache{src: src, store: cache.New(ttl, 2*ttl)}
}

func (c *Cache) Quote(ctx context.Context, inst tradebook.Instrument) (tradebook.Quote, error) {
	if v, ok := c.store.Get(inst.Ticker); ok {
		return v.(tradebook.Quote), nil
	}
	q, err := c.src.Quote(ctx, inst)
	if err != nil {
		return q, err
	}
	c.store.SetDefault(inst.Ticker, q)
	return q, nil
}

// Flush forgets every cached quote.
func (c *Cache) Flush() { c.store.Flush() }

// Len returns the number of cached quotes.
func (c *Cache) Len() int { return c.store.ItemCount() }
