package draft

import (
	"context"
	"sync"
	"time"

	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/platform/debounce"
	"github.com/stockflow/product-service/internal/tenant"
)

// DefaultDebounce is how long the autosaver waits after the last field change
// before writing the draft.
const DefaultDebounce = 500 * time.Millisecond

// Autosaver debounces the stream of form changes into draft-store writes.
// Writes are idempotent overwrites keyed by tenant, so only the latest
// pending snapshot matters: a burst of edits produces exactly one write.
type Autosaver struct {
	store Store
	group *debounce.Group

	mu      sync.Mutex
	pending *snapshot
}

type snapshot struct {
	tenant tenant.Context
	draft  *model.Draft
}

func NewAutosaver(store Store, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Autosaver{store: store, group: debounce.NewGroup(delay)}
}

// Push records the latest form snapshot and (re)arms the debounce timer.
func (a *Autosaver) Push(t tenant.Context, d *model.Draft) {
	if !t.Valid() {
		return
	}
	a.mu.Lock()
	a.pending = &snapshot{tenant: t, draft: d}
	a.mu.Unlock()

	a.group.Do(func(uint64) { a.flush(context.Background()) })
}

// Flush writes any pending snapshot immediately, cancelling the timer.
func (a *Autosaver) Flush(ctx context.Context) {
	a.group.Cancel()
	a.flush(ctx)
}

// Stop drops the pending snapshot without writing it.
func (a *Autosaver) Stop() {
	a.group.Cancel()
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
}

func (a *Autosaver) flush(ctx context.Context) {
	a.mu.Lock()
	snap := a.pending
	a.pending = nil
	a.mu.Unlock()

	if snap == nil {
		return
	}
	a.store.Save(ctx, snap.tenant, snap.draft)
}
