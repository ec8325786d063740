package ledger

import (
	"context"

	"github.com/stockflow/product-service/internal/model"
)

type Repository interface {
	Insert(ctx context.Context, entry *model.StockTransaction) error
	// BulkInsert writes all entries in one statement to bound round trips
	// when a variant commit produces several initial-stock entries.
	BulkInsert(ctx context.Context, entries []model.StockTransaction) error
}
