// Package selection tracks multi-select state for bulk operations.
// Selections hold ids only; eligibility (e.g. paid installments cannot be
// selected for mark-paid) is the caller's visible-id list, passed in.
package selection

import "sort"

// Summary is the tri-state of a list's select-all checkbox.
type Summary int

const (
	None Summary = iota
	Some
	All
)

// Selection is one list's set of selected ids.
type Selection struct {
	ids map[string]struct{}
}

func New() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips one id in or out of the selection.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// SelectAll replaces the selection with exactly the currently visible
// eligible ids. Items filtered out of view are never swept in.
func (s *Selection) SelectAll(visible []string) {
	s.ids = make(map[string]struct{}, len(visible))
	for _, id := range visible {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

func (s *Selection) Count() int {
	return len(s.ids)
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids, sorted for deterministic batches.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Prune drops ids no longer present in the mirror, keeping stale
// selections from outliving their rows after a push update.
func (s *Selection) Prune(visible []string) {
	keep := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		if _, ok := s.ids[id]; ok {
			keep[id] = struct{}{}
		}
	}
	s.ids = keep
}

// Summarize reports the select-all state against the visible ids: None,
// Some, or All. Toggling an individual row changes nothing here beyond
// what recomputation implies.
func (s *Selection) Summarize(visible []string) Summary {
	if len(visible) == 0 || len(s.ids) == 0 {
		return None
	}
	selected := 0
	for _, id := range visible {
		if _, ok := s.ids[id]; ok {
			selected++
		}
	}
	switch selected {
	case 0:
		return None
	case len(visible):
		return All
	default:
		return Some
	}
}

// Manager bundles the three selectable lists.
type Manager struct {
	Clients      *Selection
	Installments *Selection
	Expenses     *Selection
}

func NewManager() *Manager {
	return &Manager{
		Clients:      New(),
		Installments: New(),
		Expenses:     New(),
	}
}
