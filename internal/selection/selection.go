// Package selection tracks which remote resource is on display, the one shown
// before it, and which of its listed items are selected.
package selection

import (
	"slices"
	"sync"
	"time"
)

// Resource identifies a displayed file or directory. Listing metadata is
// optional; Items is only set for directories.
type Resource struct {
	Path     string
	IsDir    bool
	Name     string
	Size     int64
	Modified time.Time
	Items    []Resource
}

// FilesContext reports whether the application is currently showing files.
// It is owned outside this package.
type FilesContext func() bool

// State is a point-in-time copy of the store.
type State struct {
	Current  *Resource
	Prior    *Resource
	Selected []int // indexes into Current.Items, in selection order
	Multiple bool
	Reload   bool
}

func defaultState() State {
	return State{Selected: []int{}}
}

// Store holds the selection state. Every operation is total; none blocks on
// I/O.
type Store struct {
	mu      sync.Mutex
	state   State
	inFiles FilesContext
}

// New creates an empty Store. inFiles may be nil, meaning never in the files
// context.
func New(inFiles FilesContext) *Store {
	if inFiles == nil {
		inFiles = func() bool { return false }
	}

	return &Store{state: defaultState(), inFiles: inFiles}
}

// SetCurrent makes ref the current resource and moves the previous current
// one into the prior slot. ref may be nil.
func (s *Store) SetCurrent(ref *Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Prior = s.state.Current
	s.state.Current = ref
}

// ToggleMultiple flips multi-selection mode.
func (s *Store) ToggleMultiple() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Multiple = !s.state.Multiple
}

// Select adds id to the selection unless it is already selected.
func (s *Store) Select(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.state.Selected, id) {
		s.state.Selected = append(s.state.Selected, id)
	}
}

// Deselect removes the first occurrence of id. Absent ids are ignored.
func (s *Store) Deselect(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.Index(s.state.Selected, id); i >= 0 {
		s.state.Selected = slices.Delete(s.state.Selected, i, i+1)
	}
}

// SetReload sets or clears the request for the current listing to be
// fetched again.
func (s *Store) SetReload(reload bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Reload = reload
}

// Reset returns every field to its initial value.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = defaultState()
}

// Snapshot returns a copy of the state. The Selected slice is not shared.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Selected = slices.Clone(s.state.Selected)

	return st
}

// SelectedCount is the number of selected items.
func (s *Store) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.state.Selected)
}

// IsListing reports whether a directory listing is on display: the files
// context is active and the current resource is a directory.
func (s *Store) IsListing() bool {
	s.mu.Lock()
	cur := s.state.Current
	s.mu.Unlock()

	return s.inFiles() && cur != nil && cur.IsDir
}
