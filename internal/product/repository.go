package product

import (
	"context"

	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/tenant"
)

type Repository interface {
	Insert(ctx context.Context, p *model.Product) (*model.Product, error)
	BulkInsert(ctx context.Context, rows []model.Product) ([]model.Product, error)

	// CountByName counts non-variant products with this exact name in the
	// tenant's branch. Used by the duplicate-name check.
	CountByName(ctx context.Context, t tenant.Context, name string) (int, error)

	ListByBranch(ctx context.Context, branchID string) ([]model.Product, error)
}
