package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/tenant"
)

type memStore struct {
	mu     sync.Mutex
	saves  []*model.Draft
	drafts map[string]*model.Draft
}

func newMemStore() *memStore {
	return &memStore{drafts: map[string]*model.Draft{}}
}

func (m *memStore) Save(_ context.Context, t tenant.Context, d *model.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, d)
	m.drafts[t.DraftKey()] = d
}

func (m *memStore) Load(_ context.Context, t tenant.Context) *model.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drafts[t.DraftKey()]
}

func (m *memStore) Clear(_ context.Context, t tenant.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, t.DraftKey())
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func (m *memStore) lastSave() *model.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

func testTenant() tenant.Context {
	return tenant.Context{UserID: "user-1", BranchID: "branch-1"}
}

func draftNamed(name string) *model.Draft {
	return &model.Draft{FormValues: model.FormValues{Name: name}, Timestamp: time.Now()}
}

func TestAutosaverCoalescesBurstIntoOneWrite(t *testing.T) {
	store := newMemStore()
	a := NewAutosaver(store, 30*time.Millisecond)

	for _, name := range []string{"A", "Ar", "Ara", "Arab", "Arabica"} {
		a.Push(testTenant(), draftNamed(name))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return store.saveCount() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, "Arabica", store.lastSave().FormValues.Name,
		"only the latest snapshot is written")
}

func TestAutosaverFlushWritesImmediately(t *testing.T) {
	store := newMemStore()
	a := NewAutosaver(store, time.Hour)

	a.Push(testTenant(), draftNamed("pending"))
	require.Equal(t, 0, store.saveCount())

	a.Flush(context.Background())
	require.Equal(t, 1, store.saveCount())
	assert.Equal(t, "pending", store.lastSave().FormValues.Name)

	// A second flush with nothing pending writes nothing.
	a.Flush(context.Background())
	assert.Equal(t, 1, store.saveCount())
}

func TestAutosaverStopDropsPending(t *testing.T) {
	store := newMemStore()
	a := NewAutosaver(store, 20*time.Millisecond)

	a.Push(testTenant(), draftNamed("doomed"))
	a.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, store.saveCount())
}

func TestAutosaverIgnoresInvalidTenant(t *testing.T) {
	store := newMemStore()
	a := NewAutosaver(store, 10*time.Millisecond)

	a.Push(tenant.Context{}, draftNamed("orphan"))
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, store.saveCount())
}
