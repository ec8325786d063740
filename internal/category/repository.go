package category

import (
	"context"

	"github.com/stockflow/product-service/internal/model"
)

type Repository interface {
	// FindByName does an exact-match lookup scoped to the owning user.
	// Returns nil when no category matches.
	FindByName(ctx context.Context, userID, name string) (*model.Category, error)
	Create(ctx context.Context, c *model.Category) error
}
