package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoCoalescesBurst(t *testing.T) {
	g := NewGroup(30 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		g.Do(func(uint64) { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, 10*time.Millisecond, "a burst of events should produce exactly one call")

	// Nothing else fires afterwards.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenSupersession(t *testing.T) {
	g := NewGroup(10 * time.Millisecond)

	var mu sync.Mutex
	var applied []uint64

	first := g.Do(func(token uint64) {
		// Simulate a slow callback: by the time it checks, a newer event
		// has advanced the token, so the result must be dropped.
		time.Sleep(50 * time.Millisecond)
		if token == g.Current() {
			mu.Lock()
			applied = append(applied, token)
			mu.Unlock()
		}
	})

	// Let the first callback start, then supersede it.
	time.Sleep(20 * time.Millisecond)
	second := g.Do(func(token uint64) {
		if token == g.Current() {
			mu.Lock()
			applied = append(applied, token)
			mu.Unlock()
		}
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{second}, applied, "only the newest token may apply")
	assert.Greater(t, second, first)
}

func TestCancelDropsPendingAndInvalidates(t *testing.T) {
	g := NewGroup(20 * time.Millisecond)

	var calls atomic.Int32
	token := g.Do(func(tok uint64) {
		if tok == g.Current() {
			calls.Add(1)
		}
	})

	cancelToken := g.Cancel()
	assert.Greater(t, cancelToken, token, "cancel advances the token")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "cancelled call must not fire")
}

func TestStopKeepsToken(t *testing.T) {
	g := NewGroup(20 * time.Millisecond)
	token := g.Do(func(uint64) {})
	g.Stop()
	assert.Equal(t, token, g.Current())
}
