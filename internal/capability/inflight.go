package capability

import "sync"

// InFlight tracks which entities have an outstanding mutating request.
// Entries are keyed by entity ID so one row's request never blocks another.
type InFlight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewInFlight creates an empty tracker.
func NewInFlight() *InFlight {
	return &InFlight{active: make(map[string]struct{})}
}

// Begin marks id as in flight. It returns false if id is already in flight.
func (f *InFlight) Begin(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[id]; busy {
		return false
	}
	f.active[id] = struct{}{}
	return true
}

// End clears id.
func (f *InFlight) End(id string) {
	f.mu.Lock()
	delete(f.active, id)
	f.mu.Unlock()
}

// Active reports whether id is in flight.
func (f *InFlight) Active(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.active[id]
	return busy
}
