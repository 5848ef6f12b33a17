// Package view holds the client-side ledger state: the visible tab list, the
// always-fresh active snapshot, the aggregation pipeline that turns raw
// obligations into render items, and the summary statistics derived from the
// snapshot.
package view

import (
	"sync"

	"splitbook/internal/core"
)

// Tab is one of the two top-level views partitioning obligations by status.
type Tab string

const (
	TabActive  Tab = "active"
	TabSettled Tab = "settled"
)

// Status returns the obligation status a tab is scoped to.
func (t Tab) Status() core.Status {
	return core.Status(t)
}

// Target names the state slot a fetch was issued for.
type Target int

const (
	// TargetTab updates the visible tab list, guarded by RequestedTab.
	TargetTab Target = iota
	// TargetSnapshot updates the active snapshot regardless of the
	// selected tab.
	TargetSnapshot
)

// FetchResult is one completed fetch, tagged at issuance time. Every result
// is merged through Store.Apply; completion order, not issuance order,
// governs the final slot values.
type FetchResult struct {
	Target       Target
	RequestedTab Tab
	Obligations  []core.Obligation
	Err          error
	// Primary marks initial and tab-change fetches, whose failures are
	// surfaced with a retry affordance. Background poll failures are
	// swallowed and leave the last good state displayed.
	Primary bool
}

// Store owns the in-memory obligation lists for display. All writes go
// through SelectTab and Apply; the engine owns the persisted truth.
type Store struct {
	mu       sync.Mutex
	tab      Tab
	list     []core.Obligation
	snapshot []core.Obligation
	stats    Stats
	loading  bool
	loadErr  error
}

// State is a point-in-time copy of the store for rendering.
type State struct {
	Tab         Tab
	Obligations []core.Obligation
	Snapshot    []core.Obligation
	Stats       Stats
	Loading     bool
	Err         error
}

func NewStore() *Store {
	return &Store{tab: TabActive, loading: true}
}

// Tab returns the currently selected tab.
func (s *Store) Tab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// SelectTab switches the visible tab and marks the list as loading. It
// reports whether the selection changed; the caller issues the tab fetch.
func (s *Store) SelectTab(t Tab) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tab == t {
		return false
	}
	s.tab = t
	s.loading = true
	s.loadErr = nil
	return true
}

// BeginLoad re-enters the loading state for the current tab, clearing any
// surfaced error. Used by the retry affordance.
func (s *Store) BeginLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.loadErr = nil
}

// Apply merges one tagged fetch result. A tab-list write lands only if the
// tab it was requested for is still selected; snapshot writes always land.
// Late results for a no-longer-selected tab are discarded.
func (s *Store) Apply(res FetchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Err != nil {
		// Only a primary fetch for the still-selected tab surfaces an
		// error; everything else leaves the last good state untouched.
		if res.Primary && res.Target == TargetTab && res.RequestedTab == s.tab {
			s.loading = false
			s.loadErr = res.Err
			s.list = nil
		}
		return
	}

	switch res.Target {
	case TargetTab:
		if res.RequestedTab != s.tab {
			return
		}
		s.list = res.Obligations
		s.loading = false
		s.loadErr = nil
		if s.tab == TabActive {
			// The active tab list doubles as the snapshot, avoiding
			// a redundant second call.
			s.snapshot = res.Obligations
			s.stats = Summarize(s.snapshot)
		}
	case TargetSnapshot:
		s.snapshot = res.Obligations
		s.stats = Summarize(s.snapshot)
	}
}

// View returns a consistent copy of the current state.
func (s *Store) View() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Tab:         s.tab,
		Obligations: append([]core.Obligation(nil), s.list...),
		Snapshot:    append([]core.Obligation(nil), s.snapshot...),
		Stats:       s.stats,
		Loading:     s.loading,
		Err:         s.loadErr,
	}
}
