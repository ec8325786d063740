// Package debounce provides a debounce group: a timer shared by one logical
// stream of events where every new event supersedes the pending one. Each
// scheduled call carries a monotonically increasing token, so a slow callback
// can detect that a newer event superseded it and drop its result.
package debounce

import (
	"sync"
	"sync/atomic"
	"time"
)

type Group struct {
	delay time.Duration

	seq atomic.Uint64

	mu    sync.Mutex
	timer *time.Timer
}

func NewGroup(delay time.Duration) *Group {
	return &Group{delay: delay}
}

// Do schedules fn to run after the group's delay, cancelling any previously
// scheduled call. fn receives the token of this scheduling; it should apply
// its result only while the token is still Current.
func (g *Group) Do(fn func(token uint64)) uint64 {
	token := g.seq.Add(1)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.delay, func() { fn(token) })
	return token
}

// Current returns the token of the most recent event seen by the group.
func (g *Group) Current() uint64 {
	return g.seq.Load()
}

// Cancel drops any pending call and invalidates in-flight callbacks by
// advancing the token.
func (g *Group) Cancel() uint64 {
	token := g.seq.Add(1)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	return token
}

// Stop halts the pending timer without advancing the token.
func (g *Group) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
}
