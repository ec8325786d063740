package model

import "time"

// FormValues is the flat field set of the product-creation form.
// Validation tags mirror the client-side schema: name mandatory, monetary and
// quantity fields zero or more, tax rate a percentage.
type FormValues struct {
	Name              string  `json:"name" validate:"notblank"`
	Description       string  `json:"description"`
	CategoryID        string  `json:"category_id"`
	CategoryName      string  `json:"category_name"`
	QuantityInStock   int     `json:"quantity_in_stock" validate:"gte=0"`
	MinimumStockLevel int     `json:"minimum_stock_level" validate:"gte=0"`
	PurchasePrice     float64 `json:"purchase_price" validate:"gte=0"`
	SalePrice         float64 `json:"sale_price" validate:"gte=0"`
	TaxRate           float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	Location          string  `json:"location"`
	SKU               string  `json:"sku"`
}

// VariantDraft is one editable variant row of the creation form. Rows with a
// blank name are placeholders and are never submitted.
type VariantDraft struct {
	VariantName       string  `json:"variant_name"`
	QuantityInStock   int     `json:"quantity_in_stock"`
	MinimumStockLevel int     `json:"minimum_stock_level"`
	PurchasePrice     float64 `json:"purchase_price"`
	SalePrice         float64 `json:"sale_price"`
	SKU               string  `json:"sku,omitempty"`
	Barcode           string  `json:"barcode,omitempty"`
	Location          string  `json:"location,omitempty"`
}

// Draft is the locally persisted snapshot of an in-progress creation form.
// ImagePreviews holds preview references only, never binary image data: after
// a restore the previews are stale and the operator has to re-attach files.
type Draft struct {
	FormValues          FormValues     `json:"form_values"`
	Variants            []VariantDraft `json:"variants"`
	ImagePreviews       []string       `json:"image_previews"`
	ShowVariantsSection bool           `json:"show_variants_section"`
	Timestamp           time.Time      `json:"timestamp"`
}
