package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/tenant"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertColumns = `
        id, user_id, branch_id, category_id, name, description,
        quantity_in_stock, minimum_stock_level, unit_price, purchase_price,
        sale_price, tax_rate, location, sku, image_url, is_variant,
        parent_product_id, variant_name, variant_barcode, created_at, updated_at
`

const insertBindings = `
        :id, :user_id, :branch_id, :category_id, :name, :description,
        :quantity_in_stock, :minimum_stock_level, :unit_price, :purchase_price,
        :sale_price, :tax_rate, :location, :sku, :image_url, :is_variant,
        :parent_product_id, :variant_name, :variant_barcode, :created_at, :updated_at
`

func (r *PGRepository) Insert(ctx context.Context, p *model.Product) (*model.Product, error) {
	query := fmt.Sprintf("INSERT INTO products (%s) VALUES (%s)", insertColumns, insertBindings)
	if _, err := r.DB.NamedExecContext(ctx, query, p); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *PGRepository) BulkInsert(ctx context.Context, rows []model.Product) ([]model.Product, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("INSERT INTO products (%s) VALUES (%s)", insertColumns, insertBindings)
	if _, err := r.DB.NamedExecContext(ctx, query, rows); err != nil {
		return nil, fmt.Errorf("bulk insert products: %w", err)
	}
	return rows, nil
}

func (r *PGRepository) CountByName(ctx context.Context, t tenant.Context, name string) (int, error) {
	var count int
	query := `
        SELECT count(*) FROM products
        WHERE name = $1 AND branch_id = $2 AND is_variant = false
    `
	if err := r.DB.GetContext(ctx, &count, query, name, t.BranchID); err != nil {
		return 0, fmt.Errorf("count products by name: %w", err)
	}
	return count, nil
}

func (r *PGRepository) ListByBranch(ctx context.Context, branchID string) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT * FROM products WHERE branch_id = $1 ORDER BY created_at DESC`
	if err := r.DB.SelectContext(ctx, &products, query, branchID); err != nil {
		return nil, fmt.Errorf("list products by branch: %w", err)
	}
	return products, nil
}
