package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/stockflow/product-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertQuery = `
    INSERT INTO stock_transactions (
        id, product_id, product_name, transaction_type, quantity, unit_price,
        total_value, user_id, created_by, branch_id, reference_number, notes,
        variant_id, variant_name, adjustment_method, created_at
    )
    VALUES (
        :id, :product_id, :product_name, :transaction_type, :quantity, :unit_price,
        :total_value, :user_id, :created_by, :branch_id, :reference_number, :notes,
        :variant_id, :variant_name, :adjustment_method, :created_at
    )
`

func (r *PGRepository) Insert(ctx context.Context, entry *model.StockTransaction) error {
	if _, err := r.DB.NamedExecContext(ctx, insertQuery, entry); err != nil {
		return fmt.Errorf("insert stock transaction: %w", err)
	}
	return nil
}

func (r *PGRepository) BulkInsert(ctx context.Context, entries []model.StockTransaction) error {
	if len(entries) == 0 {
		return nil
	}
	if _, err := r.DB.NamedExecContext(ctx, insertQuery, entries); err != nil {
		return fmt.Errorf("bulk insert stock transactions: %w", err)
	}
	return nil
}
