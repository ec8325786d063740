// Package search mirrors committed products into the search index.
package search

import (
	"context"

	platformsearch "github.com/stockflow/product-service/internal/platform/search"

	"github.com/stockflow/product-service/internal/model"
)

const indexName = "products"

const indexMapping = `{
	"mappings": {
		"properties": {
			"branch_id": { "type": "keyword" },
			"user_id": { "type": "keyword" },
			"name": { "type": "text" },
			"description": { "type": "text" },
			"sku": { "type": "keyword" },
			"variant_name": { "type": "text" },
			"sale_price": { "type": "double" },
			"created_at": { "type": "date" }
		}
	}
}`

type Indexer struct {
	client *platformsearch.Client
}

func NewIndexer(client *platformsearch.Client) *Indexer {
	return &Indexer{client: client}
}

// IndexProduct writes the product and its variants into the search index.
// The index is created lazily so a fresh cluster works without a migration
// step.
func (i *Indexer) IndexProduct(ctx context.Context, p *model.Product, variants []model.Product) error {
	_ = i.client.CreateIndex(ctx, indexName, indexMapping)

	if err := i.client.Index(ctx, indexName, p.ID, p); err != nil {
		return err
	}
	for idx := range variants {
		if err := i.client.Index(ctx, indexName, variants[idx].ID, &variants[idx]); err != nil {
			return err
		}
	}
	return nil
}
