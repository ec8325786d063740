package repository

import (
	"context"
	"database/sql"
	"errors"
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

func (r *PGRepository) FindByName(ctx context.Context, userID, name string) (*model.Category, error) {
	var cat model.Category
	query := `SELECT * FROM categories WHERE user_id = $1 AND name = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &cat, query, userID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return &cat, nil
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
        INSERT INTO categories (id, user_id, name, created_at, updated_at)
        VALUES (:id, :user_id, :name, :created_at, :updated_at)
    `
	if _, err := r.DB.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}
