package workflow

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/stockflow/product-service/internal/assets"
	"github.com/stockflow/product-service/internal/draft"
	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/namecheck"
	"github.com/stockflow/product-service/internal/tenant"
	"github.com/stockflow/product-service/internal/variants"
)

// DefaultWatchdog is how long a submission may stay in flight before the
// form unlocks itself and tells the operator to retry.
const DefaultWatchdog = 12 * time.Second

// FormConfig tunes the form's timers. Zero values pick the defaults; tests
// inject short delays.
type FormConfig struct {
	AutosaveDelay   time.Duration
	NameCheckDelay  time.Duration
	WatchdogTimeout time.Duration

	// Navigate is invoked after a fully successful commit.
	Navigate func()
}

// Form is one product-creation session: the field values, the variant rows,
// the staged images, the draft autosaver and the duplicate-name checker,
// plus the submission guard.
//
// Every mutation pushes a fresh draft snapshot into the autosaver, so the
// persisted draft always converges on the latest state. Submission is
// guarded by a single atomic flag: while a commit is in flight further
// submits are ignored, and a watchdog releases the flag if the commit hangs.
type Form struct {
	tenant   tenant.Context
	deps     Deps
	notifier Notifier
	cfg      FormConfig

	autosaver *draft.Autosaver
	checker   *namecheck.Checker
	variants  *variants.Set
	images    *assets.Stager

	mu     sync.Mutex
	values model.FormValues

	submitting atomic.Bool
}

func NewForm(t tenant.Context, deps Deps, notifier Notifier, previews assets.PreviewAllocator, cfg FormConfig) *Form {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.WatchdogTimeout <= 0 {
		cfg.WatchdogTimeout = DefaultWatchdog
	}
	return &Form{
		tenant:    t,
		deps:      deps,
		notifier:  notifier,
		cfg:       cfg,
		autosaver: draft.NewAutosaver(deps.Drafts, cfg.AutosaveDelay),
		checker:   namecheck.New(deps.Products, deps.Log, cfg.NameCheckDelay),
		variants:  variants.NewSet(),
		images:    assets.NewStager(previews),
	}
}

// Values returns the current field values.
func (f *Form) Values() model.FormValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Update applies fn to the field values. A name change re-arms the
// duplicate-name check; every change schedules an autosave.
func (f *Form) Update(fn func(*model.FormValues)) {
	f.mu.Lock()
	before := f.values.Name
	fn(&f.values)
	after := f.values.Name
	f.mu.Unlock()

	if before != after {
		f.checker.NameChanged(f.tenant, after, f.variants.HasVariants())
	}
	f.autosave()
}

// Duplicate reports whether the current name collides with an existing
// non-variant product in this branch.
func (f *Form) Duplicate() bool {
	return f.checker.Duplicate()
}

// ToggleVariants opens or closes the variants section and returns the new
// state. Switching into variant mode clears any duplicate-name flag because
// the uniqueness rule only applies to simple products.
func (f *Form) ToggleVariants() bool {
	open := f.variants.ToggleSection()
	f.checker.NameChanged(f.tenant, f.Values().Name, f.variants.HasVariants())
	f.autosave()
	return open
}

func (f *Form) AddVariant() {
	f.variants.Add()
	f.autosave()
}

func (f *Form) RemoveVariant(index int) {
	f.variants.Remove(index)
	f.checker.NameChanged(f.tenant, f.Values().Name, f.variants.HasVariants())
	f.autosave()
}

func (f *Form) UpdateVariant(index int, fn func(*model.VariantDraft)) {
	f.variants.Update(index, fn)
	f.checker.NameChanged(f.tenant, f.Values().Name, f.variants.HasVariants())
	f.autosave()
}

func (f *Form) Variants() *variants.Set { return f.variants }

func (f *Form) AddImages(files []assets.File) {
	f.images.Ingest(files)
	f.autosave()
}

func (f *Form) DropImages(files []assets.File) {
	f.images.IngestDrop(files)
	f.autosave()
}

func (f *Form) RemoveImage(index int) {
	f.images.Remove(index)
	f.autosave()
}

func (f *Form) Images() *assets.Stager { return f.images }

// Restore loads the persisted draft, if any, back into the form. Image
// binaries are never drafted, only their preview references, so after a
// restore the operator is told to re-attach the files.
func (f *Form) Restore(ctx context.Context) bool {
	d := f.deps.Drafts.Load(ctx, f.tenant)
	if d == nil {
		return false
	}

	f.mu.Lock()
	f.values = d.FormValues
	f.mu.Unlock()
	f.variants.Restore(d.Variants, d.ShowVariantsSection)

	if len(d.ImagePreviews) > 0 {
		f.notifier.Info("Draft restored. Product images need to be re-attached.")
	}
	f.checker.NameChanged(f.tenant, d.FormValues.Name, f.variants.HasVariants())
	return true
}

// Prefill seeds the form from an external source, for example a product
// being duplicated. It overwrites the current values.
func (f *Form) Prefill(values model.FormValues) {
	f.mu.Lock()
	f.values = values
	f.mu.Unlock()
	f.checker.NameChanged(f.tenant, values.Name, f.variants.HasVariants())
	f.autosave()
}

// ApplyBarcode routes a scanned barcode into the SKU field when it is still
// blank.
func (f *Form) ApplyBarcode(code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}
	f.Update(func(v *model.FormValues) {
		if strings.TrimSpace(v.SKU) == "" {
			v.SKU = code
		}
	})
}

// Submit runs one commit. A second Submit while one is in flight is a no-op
// and returns nil. If the commit outlives the watchdog the guard is released
// and the operator is told to retry; the late result is still returned to
// the caller when the commit eventually finishes.
func (f *Form) Submit(ctx context.Context) *Result {
	if !f.submitting.CompareAndSwap(false, true) {
		return nil
	}

	// Persist the last few hundred milliseconds of edits before committing,
	// so a failed commit leaves a draft matching what was on screen.
	f.autosaver.Flush(ctx)

	done := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-time.After(f.cfg.WatchdogTimeout):
			if f.submitting.CompareAndSwap(true, false) {
				f.deps.Log.Warn("submission watchdog fired",
					zap.Duration("timeout", f.cfg.WatchdogTimeout))
				f.notifier.Error("Request took too long. Please try again.")
			}
		}
	}()

	orch := New(f.deps, f.notifier)
	res := orch.Commit(ctx, f.tenant, Input{
		Form:          f.Values(),
		Variants:      f.variants,
		Images:        f.images,
		DuplicateName: f.checker.Duplicate(),
		Navigate:      f.cfg.Navigate,
	})
	close(done)

	f.submitting.CompareAndSwap(true, false)

	if res.Done() {
		f.mu.Lock()
		f.values = model.FormValues{}
		f.mu.Unlock()
		f.autosaver.Stop()
		f.checker.Close()
	}
	return res
}

// Submitting reports whether a commit is currently in flight.
func (f *Form) Submitting() bool {
	return f.submitting.Load()
}

// Close shuts the session down without committing. Pending edits are
// flushed so the draft survives; staged previews are released.
func (f *Form) Close(ctx context.Context) {
	f.checker.Close()
	f.autosaver.Flush(ctx)
	f.images.Close()
}

func (f *Form) autosave() {
	f.autosaver.Push(f.tenant, f.snapshot())
}

func (f *Form) snapshot() *model.Draft {
	return &model.Draft{
		FormValues:          f.Values(),
		Variants:            f.variants.Items(),
		ImagePreviews:       f.images.PreviewRefs(),
		ShowVariantsSection: f.variants.Open(),
		Timestamp:           time.Now(),
	}
}
