// Package namecheck flags duplicate product names while the operator types.
package namecheck

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stockflow/product-service/internal/platform/debounce"
	"github.com/stockflow/product-service/internal/platform/logger"
	"github.com/stockflow/product-service/internal/tenant"
)

// DefaultDebounce is how long the checker waits after the last name edit
// before querying the store.
const DefaultDebounce = 500 * time.Millisecond

const queryTimeout = 10 * time.Second

// ProductCounter is the slice of the product repository the checker needs.
type ProductCounter interface {
	CountByName(ctx context.Context, t tenant.Context, name string) (int, error)
}

// Checker runs a debounced, supersedable duplicate-name query. Only the
// newest edit can set the flag: each scheduled query carries a token, and a
// response whose token is no longer current is discarded, so a slow old
// response can never overwrite the result of a newer keystroke.
//
// Duplicate names are only forbidden among non-variant parents; while the
// form is in variant mode the checker resets to false and stays idle. On a
// transport error it fails open (not a duplicate) rather than blocking
// submission on a transient fault.
type Checker struct {
	products ProductCounter
	log      logger.Logger
	group    *debounce.Group

	mu        sync.Mutex
	duplicate bool
}

func New(products ProductCounter, log logger.Logger, delay time.Duration) *Checker {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Checker{
		products: products,
		log:      log,
		group:    debounce.NewGroup(delay),
	}
}

// NameChanged feeds a name edit into the checker.
func (c *Checker) NameChanged(t tenant.Context, name string, hasVariants bool) {
	name = strings.TrimSpace(name)
	if name == "" || !t.Valid() || hasVariants {
		c.group.Cancel()
		c.set(false)
		return
	}

	c.group.Do(func(token uint64) {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		count, err := c.products.CountByName(ctx, t, name)
		if err != nil {
			c.log.Warn("duplicate name check failed, treating as unique",
				zap.String("name", name), zap.Error(err))
			c.apply(token, false)
			return
		}
		c.apply(token, count > 0)
	})
}

// Duplicate reports the result of the most recent completed check.
func (c *Checker) Duplicate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duplicate
}

// Close cancels any pending check.
func (c *Checker) Close() {
	c.group.Cancel()
}

func (c *Checker) apply(token uint64, duplicate bool) {
	// A newer edit superseded this query while it was in flight.
	if token != c.group.Current() {
		return
	}
	c.set(duplicate)
}

func (c *Checker) set(duplicate bool) {
	c.mu.Lock()
	c.duplicate = duplicate
	c.mu.Unlock()
}
