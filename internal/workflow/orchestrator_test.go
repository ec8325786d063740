package workflow

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow/product-service/internal/assets"
	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/platform/logger"
	"github.com/stockflow/product-service/internal/tenant"
	"github.com/stockflow/product-service/internal/variants"
)

// ---- fakes -----------------------------------------------------------------

type fakeProducts struct {
	mu        sync.Mutex
	inserted  []*model.Product
	bulk      [][]model.Product
	counts    map[string]int
	insertErr error
	bulkErr   error
	countErr  error
	blockIns  chan struct{}
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{counts: map[string]int{}}
}

func (f *fakeProducts) Insert(ctx context.Context, p *model.Product) (*model.Product, error) {
	f.mu.Lock()
	block := f.blockIns
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	cp := *p
	f.inserted = append(f.inserted, &cp)
	return &cp, nil
}

func (f *fakeProducts) BulkInsert(_ context.Context, rows []model.Product) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	cp := make([]model.Product, len(rows))
	copy(cp, rows)
	f.bulk = append(f.bulk, cp)
	return cp, nil
}

func (f *fakeProducts) CountByName(_ context.Context, _ tenant.Context, name string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[name], nil
}

func (f *fakeProducts) ListByBranch(context.Context, string) ([]model.Product, error) {
	return nil, nil
}

func (f *fakeProducts) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

type fakeCategories struct {
	existing map[string]*model.Category
	created  []*model.Category
	findErr  error
	finds    []string
}

func (f *fakeCategories) FindByName(_ context.Context, _ string, name string) (*model.Category, error) {
	f.finds = append(f.finds, name)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.existing[name], nil
}

func (f *fakeCategories) Create(_ context.Context, c *model.Category) error {
	f.created = append(f.created, c)
	return nil
}

type fakeLedger struct {
	entries   []model.StockTransaction
	insertErr error
	bulkErr   error
}

func (f *fakeLedger) Insert(_ context.Context, e *model.StockTransaction) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeLedger) BulkInsert(_ context.Context, entries []model.StockTransaction) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeLedger) byRef(ref string) []model.StockTransaction {
	var out []model.StockTransaction
	for _, e := range f.entries {
		if e.ReferenceNumber == ref {
			out = append(out, e)
		}
	}
	return out
}

type fakeDrafts struct {
	mu      sync.Mutex
	drafts  map[string]*model.Draft
	cleared int
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{drafts: map[string]*model.Draft{}}
}

func (f *fakeDrafts) Save(_ context.Context, t tenant.Context, d *model.Draft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[t.DraftKey()] = d
}

func (f *fakeDrafts) Load(_ context.Context, t tenant.Context) *model.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drafts[t.DraftKey()]
}

func (f *fakeDrafts) Clear(_ context.Context, t tenant.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, t.DraftKey())
	f.cleared++
	return nil
}

func (f *fakeDrafts) has(t tenant.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.drafts[t.DraftKey()]
	return ok
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) CommitFanout(context.Context, tenant.Context) error {
	f.calls++
	return f.err
}

type fakeObjectStore struct {
	uploads []string
	err     error
}

func (f *fakeObjectStore) Upload(_ context.Context, key string, _ io.Reader, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type toastRecorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	warnings  []string
	infos     []string
}

func (r *toastRecorder) Success(msg string) { r.record(&r.successes, msg) }
func (r *toastRecorder) Error(msg string)   { r.record(&r.errors, msg) }
func (r *toastRecorder) Warning(msg string) { r.record(&r.warnings, msg) }
func (r *toastRecorder) Info(msg string)    { r.record(&r.infos, msg) }

func (r *toastRecorder) record(dst *[]string, msg string) {
	r.mu.Lock()
	*dst = append(*dst, msg)
	r.mu.Unlock()
}

func (r *toastRecorder) errorList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

// ---- harness ---------------------------------------------------------------

type fixture struct {
	products    *fakeProducts
	categories  *fakeCategories
	ledger      *fakeLedger
	drafts      *fakeDrafts
	invalidator *fakeInvalidator
	store       *fakeObjectStore
	toasts      *toastRecorder
	tenant      tenant.Context
}

func newFixture() *fixture {
	return &fixture{
		products:    newFakeProducts(),
		categories:  &fakeCategories{existing: map[string]*model.Category{}},
		ledger:      &fakeLedger{},
		drafts:      newFakeDrafts(),
		invalidator: &fakeInvalidator{},
		store:       &fakeObjectStore{},
		toasts:      &toastRecorder{},
		tenant:      tenant.Context{UserID: "user-1", BranchID: "branch-1"},
	}
}

func (fx *fixture) deps() Deps {
	return Deps{
		Products:    fx.products,
		Categories:  fx.categories,
		Ledger:      fx.ledger,
		Uploader:    assets.NewUploader(fx.store),
		Drafts:      fx.drafts,
		Invalidator: fx.invalidator,
		Log:         logger.NewNop(),
	}
}

func (fx *fixture) commit(in Input) *Result {
	return New(fx.deps(), fx.toasts).Commit(context.Background(), fx.tenant, in)
}

func simpleForm() model.FormValues {
	return model.FormValues{
		Name:            "Arabica Beans",
		Description:     "Single origin",
		CategoryName:    "Coffee",
		QuantityInStock: 5,
		PurchasePrice:   4.0,
		SalePrice:       7.5,
		TaxRate:         11,
		Location:        "Shelf A",
		SKU:             "ARB-001",
	}
}

func seedDraft(fx *fixture) {
	fx.drafts.Save(context.Background(), fx.tenant, &model.Draft{
		FormValues: simpleForm(),
		Timestamp:  time.Now(),
	})
}

// ---- tests -----------------------------------------------------------------

func TestCommitSimpleProduct(t *testing.T) {
	fx := newFixture()
	seedDraft(fx)

	stager := assets.NewStager(assets.RefAllocator{})
	stager.Ingest([]assets.File{{Name: "beans.jpg", ContentType: "image/jpeg", Data: []byte("img")}})

	navigated := false
	res := fx.commit(Input{
		Form:     simpleForm(),
		Variants: variants.NewSet(),
		Images:   stager,
		Navigate: func() { navigated = true },
	})

	require.True(t, res.Done(), "failed step: %s", res.FailedStep)
	require.NotNil(t, res.Product)
	assert.Equal(t, "Arabica Beans", res.Product.Name)
	assert.Equal(t, 5, res.Product.QuantityInStock)
	assert.Equal(t, 4.0, res.Product.UnitPrice, "unit price mirrors the purchase price")
	require.NotNil(t, res.Product.SKU)
	assert.Equal(t, "ARB-001", *res.Product.SKU)
	assert.False(t, res.Product.IsVariant)
	require.NotNil(t, res.Product.ImageURL)
	assert.Contains(t, *res.Product.ImageURL, "https://cdn.example.com/user-1/")

	// One INITIAL_STOCK entry carrying the opening quantity.
	stock := fx.ledger.byRef(model.RefInitialStock)
	require.Len(t, stock, 1)
	assert.Equal(t, 5, stock[0].Quantity)
	assert.Equal(t, 20.0, stock[0].TotalValue)
	assert.Equal(t, model.TxIncoming, stock[0].TransactionType)
	assert.Equal(t, "system", stock[0].AdjustmentMethod)
	assert.Equal(t, "New product initial stock", stock[0].Notes)

	// A new category was created from the typed name.
	require.Len(t, fx.categories.created, 1)
	assert.Equal(t, "Coffee", fx.categories.created[0].Name)
	require.NotNil(t, res.Product.CategoryID)
	assert.Equal(t, fx.categories.created[0].ID, *res.Product.CategoryID)

	assert.False(t, fx.drafts.has(fx.tenant), "draft cleared after success")
	assert.Equal(t, 1, fx.invalidator.calls)
	assert.True(t, navigated)
	assert.Equal(t, []string{"Product successfully added."}, fx.toasts.successes)
	assert.Empty(t, fx.toasts.warnings)
	assert.Equal(t, 0, stager.Len(), "staged previews released")
}

func TestCommitZeroQuantityWritesNoStockEntry(t *testing.T) {
	fx := newFixture()
	form := simpleForm()
	form.QuantityInStock = 0

	res := fx.commit(Input{Form: form, Variants: variants.NewSet()})

	require.True(t, res.Done())
	assert.Empty(t, fx.ledger.entries, "zero opening stock leaves the ledger untouched")
}

func TestCommitWithVariants(t *testing.T) {
	fx := newFixture()
	seedDraft(fx)

	set := variants.NewSet()
	set.Restore([]model.VariantDraft{
		{VariantName: "250g", QuantityInStock: 10, PurchasePrice: 4, SalePrice: 7, SKU: "ARB-250"},
		{VariantName: ""},
		{VariantName: "1kg", QuantityInStock: 0, PurchasePrice: 14, SalePrice: 24, Location: "Warehouse"},
	}, true)

	res := fx.commit(Input{Form: simpleForm(), Variants: set})

	require.True(t, res.Done(), "failed step: %s", res.FailedStep)
	parent := res.Product
	require.NotNil(t, parent)
	assert.Equal(t, 0, parent.QuantityInStock, "parents never carry stock")
	assert.Nil(t, parent.SKU, "parents never carry a SKU")
	assert.False(t, parent.IsVariant)

	require.Len(t, res.Variants, 2, "the blank row is skipped")
	for _, v := range res.Variants {
		assert.True(t, v.IsVariant)
		require.NotNil(t, v.ParentProductID)
		assert.Equal(t, parent.ID, *v.ParentProductID)
		assert.Equal(t, parent.Name, v.Name)
		assert.Equal(t, parent.Description, v.Description)
		assert.Equal(t, parent.CategoryID, v.CategoryID)
	}
	require.NotNil(t, res.Variants[0].Location)
	assert.Equal(t, "Shelf A", *res.Variants[0].Location, "blank variant location falls back to the parent's")
	require.NotNil(t, res.Variants[1].Location)
	assert.Equal(t, "Warehouse", *res.Variants[1].Location)

	// Parent audit entry: quantity zero, PRODUCT_CREATED.
	audit := fx.ledger.byRef(model.RefProductCreated)
	require.Len(t, audit, 1)
	assert.Equal(t, 0, audit[0].Quantity)
	assert.Equal(t, 0.0, audit[0].TotalValue)
	assert.Equal(t, "Product created", audit[0].Notes)

	// Only the variant with stock gets an initial-stock entry.
	stock := fx.ledger.byRef(model.RefInitialStockVariant)
	require.Len(t, stock, 1)
	assert.Equal(t, "Arabica Beans - 250g", stock[0].ProductName)
	assert.Equal(t, 10, stock[0].Quantity)
	assert.Equal(t, 40.0, stock[0].TotalValue)
	require.NotNil(t, stock[0].VariantID)
	assert.Equal(t, res.Variants[0].ID, *stock[0].VariantID)
	assert.Equal(t, "New variant initial stock", stock[0].Notes)

	assert.Equal(t, []string{"Product and variants added."}, fx.toasts.successes)
}

func TestValidationViolationsAbortSilently(t *testing.T) {
	fx := newFixture()
	res := fx.commit(Input{Form: model.FormValues{Name: "  ", TaxRate: 200}})

	assert.Equal(t, StepValidating, res.FailedStep)
	assert.NotEmpty(t, res.Violations)
	assert.Empty(t, fx.toasts.errorList(), "field violations surface inline, not as toasts")
	assert.Equal(t, 0, fx.products.insertCount())
}

func TestDuplicateNameAbortsSimpleMode(t *testing.T) {
	fx := newFixture()
	res := fx.commit(Input{
		Form:          simpleForm(),
		Variants:      variants.NewSet(),
		DuplicateName: true,
	})

	assert.Equal(t, StepValidating, res.FailedStep)
	assert.Equal(t, []string{"Product name already exists for a main product in this branch."},
		fx.toasts.errorList())
	assert.Equal(t, 0, fx.products.insertCount())
}

func TestDuplicateNameIgnoredInVariantMode(t *testing.T) {
	fx := newFixture()
	set := variants.NewSet()
	set.Restore([]model.VariantDraft{{VariantName: "Red"}}, true)

	res := fx.commit(Input{Form: simpleForm(), Variants: set, DuplicateName: true})
	assert.True(t, res.Done())
}

func TestInvalidTenantAborts(t *testing.T) {
	fx := newFixture()
	fx.tenant = tenant.Context{UserID: "user-1"}

	res := fx.commit(Input{Form: simpleForm()})
	assert.Equal(t, StepValidating, res.FailedStep)
	assert.Equal(t, []string{"Authentication or branch loading failed. Cannot proceed."},
		fx.toasts.errorList())
}

func TestInvalidImageAbortsBeforeAnyWrite(t *testing.T) {
	fx := newFixture()
	stager := assets.NewStager(assets.RefAllocator{})
	stager.Ingest([]assets.File{{Name: "anim.gif", ContentType: "image/gif", Data: []byte("x")}})

	res := fx.commit(Input{Form: simpleForm(), Images: stager})

	assert.Equal(t, StepUploadingAsset, res.FailedStep)
	assert.Equal(t,
		[]string{"Image upload failed: invalid format (JPEG, PNG, WebP) or size over 5 MB."},
		fx.toasts.errorList())
	assert.Empty(t, fx.store.uploads)
	assert.Equal(t, 0, fx.products.insertCount())
}

func TestCategoryIDShortCircuitsResolution(t *testing.T) {
	fx := newFixture()
	form := simpleForm()
	form.CategoryID = "cat-42"
	form.CategoryName = ""

	res := fx.commit(Input{Form: form, Variants: variants.NewSet()})

	require.True(t, res.Done())
	assert.Empty(t, fx.categories.finds, "a resolved id skips the lookup")
	require.NotNil(t, res.Product.CategoryID)
	assert.Equal(t, "cat-42", *res.Product.CategoryID)
}

func TestExistingCategoryReused(t *testing.T) {
	fx := newFixture()
	fx.categories.existing["Coffee"] = &model.Category{
		BaseModel: model.BaseModel{ID: "cat-coffee"},
		UserID:    "user-1",
		Name:      "Coffee",
	}

	res := fx.commit(Input{Form: simpleForm(), Variants: variants.NewSet()})

	require.True(t, res.Done())
	assert.Empty(t, fx.categories.created)
	require.NotNil(t, res.Product.CategoryID)
	assert.Equal(t, "cat-coffee", *res.Product.CategoryID)
}

func TestCategoryFailureIsFatal(t *testing.T) {
	fx := newFixture()
	fx.categories.findErr = errors.New("db down")

	res := fx.commit(Input{Form: simpleForm(), Variants: variants.NewSet()})

	assert.Equal(t, StepResolvingCategory, res.FailedStep)
	assert.Equal(t, []string{"Error resolving category."}, fx.toasts.errorList())
	assert.Equal(t, 0, fx.products.insertCount())
}

func TestVariantFailureLeavesParentAndDraft(t *testing.T) {
	fx := newFixture()
	seedDraft(fx)
	fx.products.bulkErr = errors.New("constraint violation")

	set := variants.NewSet()
	set.Restore([]model.VariantDraft{{VariantName: "250g", QuantityInStock: 2}}, true)

	res := fx.commit(Input{Form: simpleForm(), Variants: set})

	assert.Equal(t, StepWritingVariants, res.FailedStep)
	assert.Equal(t, 1, fx.products.insertCount(), "the parent write is not rolled back")
	assert.True(t, fx.drafts.has(fx.tenant), "the draft survives a variant failure")
	assert.Equal(t, []string{"Error creating variants."}, fx.toasts.errorList())
	assert.Empty(t, fx.toasts.successes)
	assert.Equal(t, 0, fx.invalidator.calls)
}

func TestLedgerFailureDoesNotFailCommit(t *testing.T) {
	fx := newFixture()
	seedDraft(fx)
	fx.ledger.bulkErr = errors.New("timeout")

	res := fx.commit(Input{Form: simpleForm(), Variants: variants.NewSet()})

	require.True(t, res.Done())
	assert.False(t, fx.drafts.has(fx.tenant))
	assert.Equal(t, []string{"Product successfully added."}, fx.toasts.successes)
	assert.Equal(t, []string{"Product created but stock transaction failed."}, fx.toasts.warnings)
}

func TestAtMostOneWarningToastPerCommit(t *testing.T) {
	fx := newFixture()
	fx.ledger.insertErr = errors.New("audit down")
	fx.ledger.bulkErr = errors.New("ledger down")
	fx.invalidator.err = errors.New("cache down")

	set := variants.NewSet()
	set.Restore([]model.VariantDraft{{VariantName: "250g", QuantityInStock: 2}}, true)

	res := fx.commit(Input{Form: simpleForm(), Variants: set})

	require.True(t, res.Done())
	assert.GreaterOrEqual(t, len(res.Warnings), 2, "every problem is recorded on the result")
	assert.Len(t, fx.toasts.warnings, 1, "but only the first becomes a toast")
	assert.Len(t, fx.toasts.successes, 1)
}

func TestParentInsertFailureAborts(t *testing.T) {
	fx := newFixture()
	fx.products.insertErr = errors.New("db down")

	set := variants.NewSet()
	set.Restore([]model.VariantDraft{{VariantName: "A"}}, true)

	res := fx.commit(Input{Form: simpleForm(), Variants: set})

	assert.Equal(t, StepWritingProduct, res.FailedStep)
	assert.Equal(t, []string{"Error creating main product."}, fx.toasts.errorList())
	assert.Empty(t, fx.ledger.entries)
}
