package task

import (
	"sort"
	"sync"
)

// Store is the in-memory task status store. It is the only surface through
// which more than one goroutine touches a task record; every read hands out
// a deep copy and every write goes through the lock-guarded Mutate.
type Store struct {
	mu       sync.Mutex
	records  map[string]*Record
	order    []string
	seq      uint64
	onChange func(uint64, []Record)
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// SetChangeHook installs a callback invoked with a full deep-copied listing
// after every status-affecting mutation. The hook runs outside the store
// lock and is used for best-effort snapshot persistence. The sequence
// number is assigned under the lock, so a consumer can discard a listing
// that has been overtaken by a later mutation.
func (s *Store) SetChangeHook(fn func(seq uint64, records []Record)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Create inserts a new record. Creating an id twice is a programming error
// and the second insert is ignored.
func (s *Store) Create(rec Record) {
	s.mu.Lock()
	if _, exists := s.records[rec.ID]; exists {
		s.mu.Unlock()
		return
	}
	stored := rec.clone()
	s.records[rec.ID] = &stored
	s.order = append(s.order, rec.ID)
	hook, seq, all := s.changeSetLocked()
	s.mu.Unlock()

	if hook != nil {
		hook(seq, all)
	}
}

// Get returns a deep copy of the record, or false if the id is unknown.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Mutate applies fn to the record under the store lock and reports whether
// the id was known. Terminal records are immutable: fn is not invoked for
// them. Use this for every append, progress, and status update so
// concurrent fan-out workers never lose updates.
func (s *Store) Mutate(id string, fn func(*Record)) bool {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if rec.Status.Terminal() {
		s.mu.Unlock()
		return true
	}
	fn(rec)
	hook, seq, all := s.changeSetLocked()
	s.mu.Unlock()

	if hook != nil {
		hook(seq, all)
	}
	return true
}

// List returns deep copies of all records, optionally filtered to one
// status, ordered by status priority with ties broken by insertion order.
func (s *Store) List(filter Status) []Record {
	s.mu.Lock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		if filter != "" && rec.Status != filter {
			continue
		}
		out = append(out, rec.clone())
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status.listPriority() < out[j].Status.listPriority()
	})
	return out
}

// Purge removes every record matching the predicate and returns how many
// were removed.
func (s *Store) Purge(match func(Record) bool) int {
	s.mu.Lock()
	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		rec := s.records[id]
		if match(rec.clone()) {
			delete(s.records, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	hook, seq, all := s.changeSetLocked()
	s.mu.Unlock()

	if removed > 0 && hook != nil {
		hook(seq, all)
	}
	return removed
}

// Load repopulates the store with restored records, preserving their
// order. Existing contents are replaced; Load is only called at startup
// before any task starts.
func (s *Store) Load(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*Record, len(records))
	s.order = s.order[:0]
	for _, rec := range records {
		stored := rec.clone()
		s.records[rec.ID] = &stored
		s.order = append(s.order, rec.ID)
	}
}

func (s *Store) changeSetLocked() (func(uint64, []Record), uint64, []Record) {
	s.seq++
	if s.onChange == nil {
		return nil, 0, nil
	}
	all := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.records[id].clone())
	}
	return s.onChange, s.seq, all
}
