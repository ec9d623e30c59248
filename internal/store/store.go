// Package store provides the primitives shared by every domain slice:
// a Store that serializes all state mutation behind one lock and
// notifies subscribers after each commit, and the per-slice operation
// lifecycle Status.
package store

import "sync"

// Store is the single shared container guard. Slices own their state;
// every mutation goes through Commit, so no two reducers ever run
// concurrently. It is created once at application start and lives for
// the session.
type Store struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

func New() *Store {
	return &Store{subs: make(map[int]func())}
}

// Commit runs fn with the state lock held, then notifies subscribers.
// Notification happens outside the lock so a subscriber may read state.
func (s *Store) Commit(fn func()) {
	s.mu.Lock()
	fn()
	subs := make([]func(), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.mu.Unlock()

	for _, f := range subs {
		f()
	}
}

// View runs fn with the state lock held, without notifying. Slices use
// it to build snapshots for the view layer.
func (s *Store) View(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Subscribe registers fn to run after every commit and returns an
// unsubscribe func.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Status is the pending/fulfilled/rejected lifecycle every async
// operation walks its slice through.
type Status struct {
	Loading bool
	Error   string
}

// Begin marks the operation pending: loading set, prior error cleared.
func (st *Status) Begin() {
	st.Loading = true
	st.Error = ""
}

// Done marks the operation fulfilled.
func (st *Status) Done() {
	st.Loading = false
	st.Error = ""
}

// Fail marks the operation rejected, recording the user-facing message.
func (st *Status) Fail(msg string) {
	st.Loading = false
	st.Error = msg
}
