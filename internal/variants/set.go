// Package variants holds the editable variant collection of the creation
// form.
package variants

import (
	"strings"
	"sync"

	"github.com/stockflow/product-service/internal/model"
)

// Set is an ordered collection of variant drafts plus the expanded/collapsed
// state of the variants section.
//
// Whether the product "has variants" is derived from the data: some row has
// a non-blank name. It is never stored separately, so the flag cannot drift
// from the rows. Mutations are copy-on-write; Items returns a fresh slice on
// every change so consumers can rely on identity for change detection.
type Set struct {
	mu    sync.Mutex
	items []model.VariantDraft
	open  bool
}

func NewSet() *Set {
	return &Set{}
}

// HasVariants reports whether any row has a non-blank name. Editing other
// fields of a row never changes this.
func (s *Set) HasVariants() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.items {
		if strings.TrimSpace(v.VariantName) != "" {
			return true
		}
	}
	return false
}

// ToggleSection flips the section open or closed and returns the new state.
// Opening with no rows seeds one blank row so there is always something to
// edit; this seeding happens only here, never on removal.
func (s *Set) ToggleSection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
	if s.open && len(s.items) == 0 {
		s.items = []model.VariantDraft{{}}
	}
	return s.open
}

func (s *Set) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Add appends a blank row.
func (s *Set) Add() {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]model.VariantDraft, len(s.items), len(s.items)+1)
	copy(next, s.items)
	s.items = append(next, model.VariantDraft{})
}

// Remove drops the row at index. Removing the last row leaves the list
// empty rather than re-seeding a blank one.
func (s *Set) Remove(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.items) {
		return
	}
	next := make([]model.VariantDraft, 0, len(s.items)-1)
	next = append(next, s.items[:index]...)
	next = append(next, s.items[index+1:]...)
	s.items = next
}

// Update applies fn to the row at index via copy-on-write.
func (s *Set) Update(index int, fn func(*model.VariantDraft)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.items) {
		return
	}
	next := make([]model.VariantDraft, len(s.items))
	copy(next, s.items)
	fn(&next[index])
	s.items = next
}

// Items returns the current rows. The returned slice is never mutated by
// later Set operations.
func (s *Set) Items() []model.VariantDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Valid returns the rows that will actually be submitted: those with a
// non-blank name, with the name trimmed.
func (s *Set) Valid() []model.VariantDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.VariantDraft
	for _, v := range s.items {
		name := strings.TrimSpace(v.VariantName)
		if name == "" {
			continue
		}
		v.VariantName = name
		out = append(out, v)
	}
	return out
}

// Reset empties the collection and collapses the section.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.open = false
}

// Restore replaces the collection from a persisted draft.
func (s *Set) Restore(items []model.VariantDraft, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]model.VariantDraft, len(items))
	copy(next, items)
	s.items = next
	s.open = open
}
