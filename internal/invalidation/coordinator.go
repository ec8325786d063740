// Package invalidation marks named query caches stale after a commit and
// forces a refetch of the product list the operator is looking at.
package invalidation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/platform/logger"
	"github.com/stockflow/product-service/internal/tenant"
)

// Named query caches touched by a product commit.
const (
	QueryProducts              = "products"
	QueryCategoryProducts      = "categoryProducts"
	QueryProductsByCategories  = "productsByCategories"
	QueryCategoryAnalytics     = "categoryAnalytics"
	QueryAllProductsAnalytics  = "allProductsAnalyticsWeekAgo"
	QueryProductCount          = "productCount"
	QueryStockTransactions     = "stockTransactions"
	QueryDashboardData         = "dashboardData"
)

const listCacheTTL = 5 * time.Minute

// CacheInvalidator is the slice of the cache client the coordinator needs.
type CacheInvalidator interface {
	DeletePattern(ctx context.Context, pattern string) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// ProductLister refetches the product list for a branch.
type ProductLister interface {
	ListByBranch(ctx context.Context, branchID string) ([]model.Product, error)
}

type Coordinator struct {
	cache    CacheInvalidator
	products ProductLister
	log      logger.Logger
}

func NewCoordinator(cache CacheInvalidator, products ProductLister, log logger.Logger) *Coordinator {
	return &Coordinator{cache: cache, products: products, log: log}
}

// Invalidate marks one named query cache stale, optionally narrowed by
// scoping keys.
func (c *Coordinator) Invalidate(ctx context.Context, queryName string, scope ...string) error {
	pattern := "query:" + queryName
	for _, s := range scope {
		pattern += ":" + s
	}
	pattern += "*"
	return c.cache.DeletePattern(ctx, pattern)
}

// RefetchProducts re-queries the branch's product list and re-primes its
// cache entry, so active consumers see the new rows immediately.
func (c *Coordinator) RefetchProducts(ctx context.Context, t tenant.Context) error {
	rows, err := c.products.ListByBranch(ctx, t.BranchID)
	if err != nil {
		return fmt.Errorf("refetch products: %w", err)
	}
	key := fmt.Sprintf("query:%s:%s", QueryProducts, t.BranchID)
	if err := c.cache.SetJSON(ctx, key, rows, listCacheTTL); err != nil {
		return fmt.Errorf("prime product list cache: %w", err)
	}
	return nil
}

// CommitFanout invalidates every query cache a commit can affect, then
// blocks on one forced product-list refetch for the tenant's branch.
// Individual invalidation failures are logged and skipped: a stale secondary
// cache is survivable, a missed refetch of the active list is what the
// caller gets told about.
func (c *Coordinator) CommitFanout(ctx context.Context, t tenant.Context) error {
	targets := []struct {
		name  string
		scope []string
	}{
		{QueryProducts, []string{t.BranchID}},
		{QueryProducts, nil},
		{QueryCategoryProducts, nil},
		{QueryProductsByCategories, nil},
		{QueryCategoryAnalytics, nil},
		{QueryAllProductsAnalytics, nil},
		{QueryProductCount, []string{t.BranchID, t.UserID}},
		{QueryStockTransactions, nil},
		{QueryDashboardData, []string{t.BranchID}},
	}
	for _, tgt := range targets {
		if err := c.Invalidate(ctx, tgt.name, tgt.scope...); err != nil {
			c.log.Warn("cache invalidation failed",
				zap.String("query", tgt.name), zap.Error(err))
		}
	}
	return c.RefetchProducts(ctx, t)
}
