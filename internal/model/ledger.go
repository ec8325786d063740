package model

import "time"

// Reference tags for stock transactions created by the product workflow.
const (
	RefInitialStock        = "INITIAL_STOCK"
	RefInitialStockVariant = "INITIAL_STOCK_VARIANT"
	RefProductCreated      = "PRODUCT_CREATED"
)

const (
	TxIncoming = "incoming"
	TxOutgoing = "outgoing"
)

// StockTransaction is an append-only stock-movement audit record, distinct
// from the current quantity_in_stock on the product row. A PRODUCT_CREATED
// entry always carries quantity 0 so it never affects aggregate stock totals.
type StockTransaction struct {
	ID               string    `db:"id" json:"id"`
	ProductID        string    `db:"product_id" json:"product_id"`
	ProductName      string    `db:"product_name" json:"product_name"`
	TransactionType  string    `db:"transaction_type" json:"transaction_type"`
	Quantity         int       `db:"quantity" json:"quantity"`
	UnitPrice        float64   `db:"unit_price" json:"unit_price"`
	TotalValue       float64   `db:"total_value" json:"total_value"`
	UserID           string    `db:"user_id" json:"user_id"`
	CreatedBy        string    `db:"created_by" json:"created_by"`
	BranchID         string    `db:"branch_id" json:"branch_id"`
	ReferenceNumber  string    `db:"reference_number" json:"reference_number"`
	Notes            string    `db:"notes" json:"notes"`
	VariantID        *string   `db:"variant_id" json:"variant_id"`
	VariantName      *string   `db:"variant_name" json:"variant_name"`
	AdjustmentMethod string    `db:"adjustment_method" json:"adjustment_method"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
