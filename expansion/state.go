// Package expansion tracks which result sections are shown in full.
//
// State is an immutable value: every change returns a new State and leaves
// the receiver untouched, so holders can detect updates by comparing values
// instead of relying on in-place mutation.
package expansion

import (
	"slices"
	"sort"
)

// State is a set of expanded section ids. The zero value is the empty set
// and is ready to use.
type State struct {
	ids map[string]struct{}
}

// Empty returns a state with no expanded sections.
func Empty() State {
	return State{}
}

// Of returns a state with exactly the given ids expanded.
func Of(ids ...string) State {
	if len(ids) == 0 {
		return State{}
	}
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	return State{ids: next}
}

// Toggle returns the symmetric difference of s and {id}: id is removed if
// present and added if absent.
func (s State) Toggle(id string) State {
	next := make(map[string]struct{}, len(s.ids)+1)
	for k := range s.ids {
		next[k] = struct{}{}
	}
	if _, ok := next[id]; ok {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	return State{ids: next}
}

// IsExpanded reports whether id is in the set.
func (s State) IsExpanded(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of expanded ids.
func (s State) Len() int {
	return len(s.ids)
}

// IDs returns the expanded ids in sorted order.
func (s State) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ExpandAll returns s with every id in ids added.
func (s State) ExpandAll(ids []string) State {
	next := make(map[string]struct{}, len(s.ids)+len(ids))
	for k := range s.ids {
		next[k] = struct{}{}
	}
	for _, id := range ids {
		next[id] = struct{}{}
	}
	return State{ids: next}
}

// Equal reports whether both states hold the same ids.
func (s State) Equal(other State) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if !other.IsExpanded(id) {
			return false
		}
	}
	return true
}

// Restrict returns s without ids that are not in keep.
func (s State) Restrict(keep []string) State {
	next := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		if slices.Contains(keep, id) {
			next[id] = struct{}{}
		}
	}
	return State{ids: next}
}
