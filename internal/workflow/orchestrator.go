// Package workflow drives the product-creation commit: validate, upload the
// primary image, resolve the category, write the product (or parent plus
// variants), write the initial stock ledger, then fan out cache
// invalidation. The remote store offers no multi-statement transaction, so
// the pipeline is a saga with per-step failure policy: steps that have not
// persisted anything abort cleanly, steps that run after remote state exists
// warn and continue instead of attempting compensating deletes.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockflow/product-service/internal/assets"
	"github.com/stockflow/product-service/internal/category"
	"github.com/stockflow/product-service/internal/draft"
	"github.com/stockflow/product-service/internal/ledger"
	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/platform/logger"
	"github.com/stockflow/product-service/internal/product"
	"github.com/stockflow/product-service/internal/tenant"
	"github.com/stockflow/product-service/internal/validate"
	"github.com/stockflow/product-service/internal/variants"
)

// Invalidator is the cache-invalidation coordinator boundary.
type Invalidator interface {
	CommitFanout(ctx context.Context, t tenant.Context) error
}

// EventPublisher announces committed products on the message bus.
type EventPublisher interface {
	ProductCreated(ctx context.Context, parent *model.Product, variants []model.Product) error
}

// SearchIndexer mirrors committed products into the search index.
type SearchIndexer interface {
	IndexProduct(ctx context.Context, p *model.Product, variants []model.Product) error
}

// Deps carries the orchestrator's collaborators. Events and Search are
// optional; everything else is required.
type Deps struct {
	Products    product.Repository
	Categories  category.Repository
	Ledger      ledger.Repository
	Uploader    *assets.Uploader
	Drafts      draft.Store
	Invalidator Invalidator
	Events      EventPublisher
	Search      SearchIndexer
	Log         logger.Logger
}

// Input is one commit attempt, assembled from the form's current state.
type Input struct {
	Form          model.FormValues
	Variants      *variants.Set
	Images        *assets.Stager
	DuplicateName bool
	Navigate      func()
}

// Result reports what the commit produced. FailedStep is StepIdle on full
// success; Warnings lists non-fatal trouble that did not stop the commit.
type Result struct {
	Product    *model.Product
	Variants   []model.Product
	Ledger     []model.StockTransaction
	ImageURL   string
	Violations []validate.Violation
	FailedStep Step
	Warnings   []string
}

func (r *Result) Done() bool {
	return r.FailedStep == StepIdle && len(r.Violations) == 0
}

type Orchestrator struct {
	deps     Deps
	notifier Notifier
	warned   bool
}

// New builds an orchestrator for a single commit attempt. Create one per
// submission: warning-toast suppression is per-commit state.
func New(deps Deps, notifier Notifier) *Orchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Orchestrator{deps: deps, notifier: notifier}
}

// Commit runs the pipeline. Remote failures never escape as panics or raw
// errors: every outcome is a Result plus notifications.
func (o *Orchestrator) Commit(ctx context.Context, t tenant.Context, in Input) *Result {
	res := &Result{}
	hasVariants := in.Variants != nil && in.Variants.HasVariants()

	// Validating: nothing persisted yet, abort freely.
	if vs := validate.Fields(in.Form); len(vs) > 0 {
		res.Violations = vs
		res.FailedStep = StepValidating
		return res
	}
	if in.DuplicateName && !hasVariants {
		o.notifier.Error("Product name already exists for a main product in this branch.")
		res.FailedStep = StepValidating
		return res
	}
	if !t.Valid() {
		o.notifier.Error("Authentication or branch loading failed. Cannot proceed.")
		res.FailedStep = StepValidating
		return res
	}

	// UploadingAsset: only the primary staged image is uploaded. A type or
	// size violation aborts before any remote write.
	var imageURL *string
	if in.Images != nil {
		if img, ok := in.Images.Primary(); ok {
			url, err := o.deps.Uploader.UploadPrimary(ctx, t, img)
			if err != nil {
				if err == assets.ErrInvalidImage {
					o.notifier.Error("Image upload failed: invalid format (JPEG, PNG, WebP) or size over 5 MB.")
				} else {
					o.deps.Log.Error("image upload failed", zap.Error(err))
					o.notifier.Error("Error uploading image.")
				}
				res.FailedStep = StepUploadingAsset
				return res
			}
			imageURL = &url
			res.ImageURL = url
		}
	}

	// ResolvingCategory: fatal, the category id is a required reference for
	// every row written below.
	categoryID, err := o.resolveCategory(ctx, t, in.Form.CategoryID, in.Form.CategoryName)
	if err != nil {
		o.deps.Log.Error("category resolution failed", zap.Error(err))
		o.notifier.Error("Error resolving category.")
		res.FailedStep = StepResolvingCategory
		return res
	}

	now := time.Now()

	if !hasVariants {
		// WritingProduct, simple mode: one row, nothing to clean up on
		// failure.
		p := o.buildProduct(t, in.Form, categoryID, imageURL, now)
		created, err := o.deps.Products.Insert(ctx, p)
		if err != nil {
			o.deps.Log.Error("product insert failed", zap.Error(err))
			o.notifier.Error(fmt.Sprintf("Error adding product: %v", err))
			res.FailedStep = StepWritingProduct
			return res
		}
		res.Product = created
	} else {
		// WritingProduct, variant mode: parent first, quantity forced to 0
		// because stock lives on the variants.
		parent := o.buildParent(t, in.Form, categoryID, imageURL, now)
		created, err := o.deps.Products.Insert(ctx, parent)
		if err != nil {
			o.deps.Log.Error("parent product insert failed", zap.Error(err))
			o.notifier.Error("Error creating main product.")
			res.FailedStep = StepWritingProduct
			return res
		}
		res.Product = created

		// Zero-quantity audit entry for the parent. Non-fatal: the parent
		// already exists and blocking on an audit-only write would orphan a
		// real product.
		audit := o.buildParentAudit(t, created, in.Form, now)
		if err := o.deps.Ledger.Insert(ctx, &audit); err != nil {
			o.deps.Log.Warn("parent audit entry failed", zap.Error(err))
			o.warn(res, "Product created but the audit entry failed.")
		} else {
			res.Ledger = append(res.Ledger, audit)
		}

		// WritingVariants: one bulk insert. Fatal, but the parent row is
		// already committed; the operator is warned instead of the system
		// attempting a rollback.
		rows := o.buildVariantRows(t, created, in.Variants.Valid(), in.Form, categoryID, imageURL, now)
		createdVariants, err := o.deps.Products.BulkInsert(ctx, rows)
		if err != nil {
			o.deps.Log.Error("variant bulk insert failed",
				zap.String("parent_id", created.ID), zap.Error(err))
			o.notifier.Error("Error creating variants.")
			res.FailedStep = StepWritingVariants
			return res
		}
		res.Variants = createdVariants
	}

	// WritingLedger: initial-stock entries for everything with a positive
	// quantity. Non-fatal; the products exist and are usable, only the audit
	// trail would be incomplete.
	entries := o.buildInitialStockEntries(t, res, in.Form, hasVariants, now)
	if len(entries) > 0 {
		if err := o.deps.Ledger.BulkInsert(ctx, entries); err != nil {
			o.deps.Log.Warn("initial stock entries failed", zap.Error(err))
			if hasVariants {
				o.warn(res, "Variants created but initial transactions failed.")
			} else {
				o.warn(res, "Product created but stock transaction failed.")
			}
		} else {
			res.Ledger = append(res.Ledger, entries...)
		}
	}

	// Invalidating: blocks on one forced refetch of the branch's product
	// list before the commit is declared done.
	if err := o.deps.Invalidator.CommitFanout(ctx, t); err != nil {
		o.deps.Log.Warn("cache invalidation fan-out failed", zap.Error(err))
		o.warn(res, "Product saved but the product list may be stale. Refresh to see it.")
	}

	o.finish(ctx, t, res, in, hasVariants)
	return res
}

// finish clears the draft, releases staged previews, publishes side-channel
// updates and navigates away. Everything here is best-effort; the commit
// already succeeded.
func (o *Orchestrator) finish(ctx context.Context, t tenant.Context, res *Result, in Input, hasVariants bool) {
	if err := o.deps.Drafts.Clear(ctx, t); err != nil {
		o.deps.Log.Warn("failed to clear draft after commit", zap.Error(err))
	}
	if in.Images != nil {
		in.Images.Close()
	}
	if in.Variants != nil {
		in.Variants.Reset()
	}

	if o.deps.Events != nil {
		if err := o.deps.Events.ProductCreated(ctx, res.Product, res.Variants); err != nil {
			o.deps.Log.Warn("product created event failed", zap.Error(err))
		}
	}
	if o.deps.Search != nil {
		if err := o.deps.Search.IndexProduct(ctx, res.Product, res.Variants); err != nil {
			o.deps.Log.Warn("search indexing failed", zap.Error(err))
		}
	}

	if hasVariants {
		o.notifier.Success("Product and variants added.")
	} else {
		o.notifier.Success("Product successfully added.")
	}
	if in.Navigate != nil {
		in.Navigate()
	}
}

// resolveCategory finds or creates the category. An id with no name is
// treated as already resolved. Blank id and name means no category.
func (o *Orchestrator) resolveCategory(ctx context.Context, t tenant.Context, id, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if id == "" && name == "" {
		return nil, nil
	}
	if id != "" && name == "" {
		return &id, nil
	}

	existing, err := o.deps.Categories.FindByName(ctx, t.UserID, name)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if existing != nil {
		return &existing.ID, nil
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		UserID:    t.UserID,
		Name:      name,
	}
	if err := o.deps.Categories.Create(ctx, cat); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &cat.ID, nil
}

func (o *Orchestrator) buildProduct(t tenant.Context, f model.FormValues, categoryID *string, imageURL *string, now time.Time) *model.Product {
	return &model.Product{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		UserID:            t.UserID,
		BranchID:          t.BranchID,
		CategoryID:        categoryID,
		Name:              strings.TrimSpace(f.Name),
		Description:       optional(f.Description),
		QuantityInStock:   f.QuantityInStock,
		MinimumStockLevel: f.MinimumStockLevel,
		UnitPrice:         f.PurchasePrice,
		PurchasePrice:     f.PurchasePrice,
		SalePrice:         f.SalePrice,
		TaxRate:           f.TaxRate,
		Location:          optional(f.Location),
		SKU:               optional(f.SKU),
		ImageURL:          imageURL,
	}
}

func (o *Orchestrator) buildParent(t tenant.Context, f model.FormValues, categoryID *string, imageURL *string, now time.Time) *model.Product {
	p := o.buildProduct(t, f, categoryID, imageURL, now)
	p.QuantityInStock = 0
	// Stock, SKU and location are managed per variant.
	p.SKU = nil
	return p
}

func (o *Orchestrator) buildParentAudit(t tenant.Context, parent *model.Product, f model.FormValues, now time.Time) model.StockTransaction {
	return model.StockTransaction{
		ID:               uuid.New().String(),
		ProductID:        parent.ID,
		ProductName:      parent.Name,
		TransactionType:  model.TxIncoming,
		Quantity:         0,
		UnitPrice:        f.PurchasePrice,
		TotalValue:       0,
		UserID:           t.UserID,
		CreatedBy:        t.UserID,
		BranchID:         t.BranchID,
		ReferenceNumber:  model.RefProductCreated,
		Notes:            "Product created",
		AdjustmentMethod: "system",
		CreatedAt:        now,
	}
}

func (o *Orchestrator) buildVariantRows(t tenant.Context, parent *model.Product, drafts []model.VariantDraft, f model.FormValues, categoryID *string, imageURL *string, now time.Time) []model.Product {
	rows := make([]model.Product, 0, len(drafts))
	for _, v := range drafts {
		name := v.VariantName
		location := optional(v.Location)
		if location == nil {
			location = optional(f.Location)
		}
		rows = append(rows, model.Product{
			BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			UserID:            t.UserID,
			BranchID:          t.BranchID,
			CategoryID:        categoryID,
			Name:              parent.Name,
			Description:       parent.Description,
			QuantityInStock:   v.QuantityInStock,
			MinimumStockLevel: v.MinimumStockLevel,
			UnitPrice:         v.PurchasePrice,
			PurchasePrice:     v.PurchasePrice,
			SalePrice:         v.SalePrice,
			TaxRate:           f.TaxRate,
			Location:          location,
			SKU:               optional(v.SKU),
			ImageURL:          parent.ImageURL,
			IsVariant:         true,
			ParentProductID:   &parent.ID,
			VariantName:       &name,
			VariantBarcode:    optional(v.Barcode),
		})
	}
	return rows
}

// buildInitialStockEntries produces one INITIAL_STOCK (or
// INITIAL_STOCK_VARIANT) entry per created row with a positive quantity.
func (o *Orchestrator) buildInitialStockEntries(t tenant.Context, res *Result, f model.FormValues, hasVariants bool, now time.Time) []model.StockTransaction {
	var entries []model.StockTransaction

	if !hasVariants {
		p := res.Product
		if p.QuantityInStock > 0 {
			entries = append(entries, model.StockTransaction{
				ID:               uuid.New().String(),
				ProductID:        p.ID,
				ProductName:      p.Name,
				TransactionType:  model.TxIncoming,
				Quantity:         p.QuantityInStock,
				UnitPrice:        p.PurchasePrice,
				TotalValue:       float64(p.QuantityInStock) * p.PurchasePrice,
				UserID:           t.UserID,
				CreatedBy:        t.UserID,
				BranchID:         t.BranchID,
				ReferenceNumber:  model.RefInitialStock,
				Notes:            "New product initial stock",
				AdjustmentMethod: "system",
				CreatedAt:        now,
			})
		}
		return entries
	}

	for i := range res.Variants {
		v := &res.Variants[i]
		if v.QuantityInStock <= 0 {
			continue
		}
		variantName := ""
		if v.VariantName != nil {
			variantName = *v.VariantName
		}
		entries = append(entries, model.StockTransaction{
			ID:               uuid.New().String(),
			ProductID:        v.ID,
			ProductName:      v.Name + " - " + variantName,
			TransactionType:  model.TxIncoming,
			Quantity:         v.QuantityInStock,
			UnitPrice:        v.PurchasePrice,
			TotalValue:       float64(v.QuantityInStock) * v.PurchasePrice,
			UserID:           t.UserID,
			CreatedBy:        t.UserID,
			BranchID:         t.BranchID,
			ReferenceNumber:  model.RefInitialStockVariant,
			Notes:            "New variant initial stock",
			VariantID:        &v.ID,
			VariantName:      v.VariantName,
			AdjustmentMethod: "system",
			CreatedAt:        now,
		})
	}
	return entries
}

// warn records a non-fatal problem. Only the first one per commit becomes a
// toast; the rest are logged, so a partially failing bulk write cannot storm
// the operator.
func (o *Orchestrator) warn(res *Result, msg string) {
	res.Warnings = append(res.Warnings, msg)
	if !o.warned {
		o.warned = true
		o.notifier.Warning(msg)
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
