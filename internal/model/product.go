package model

// Product maps a row of the products table. Variants live in the same table:
// a variant row has is_variant = true and points at its parent through
// parent_product_id. The parent row of a variant group keeps
// quantity_in_stock at 0 because stock is tracked per variant.
type Product struct {
	BaseModel
	UserID            string  `db:"user_id" json:"user_id"`
	BranchID          string  `db:"branch_id" json:"branch_id"`
	CategoryID        *string `db:"category_id" json:"category_id"`
	Name              string  `db:"name" json:"name"`
	Description       *string `db:"description" json:"description"`
	QuantityInStock   int     `db:"quantity_in_stock" json:"quantity_in_stock"`
	MinimumStockLevel int     `db:"minimum_stock_level" json:"minimum_stock_level"`
	UnitPrice         float64 `db:"unit_price" json:"unit_price"`
	PurchasePrice     float64 `db:"purchase_price" json:"purchase_price"`
	SalePrice         float64 `db:"sale_price" json:"sale_price"`
	TaxRate           float64 `db:"tax_rate" json:"tax_rate"`
	Location          *string `db:"location" json:"location"`
	SKU               *string `db:"sku" json:"sku"`
	ImageURL          *string `db:"image_url" json:"image_url"`
	IsVariant         bool    `db:"is_variant" json:"is_variant"`
	ParentProductID   *string `db:"parent_product_id" json:"parent_product_id"`
	VariantName       *string `db:"variant_name" json:"variant_name"`
	VariantBarcode    *string `db:"variant_barcode" json:"variant_barcode"`
}
