package task

import "sync"

// registryEntry tracks one live task: its cooperative cancellation flag
// and the done channel of the worker goroutine, closed on exit.
type registryEntry struct {
	cancelled bool
	done      <-chan struct{}
}

// Registry tracks live tasks and their cancellation flags. Cancellation is
// cooperative: RequestCancel only raises a flag that workers poll at their
// checkpoints, it never interrupts a worker.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register creates a live entry for a starting task. done is the worker's
// completion channel, used for liveness inspection.
func (r *Registry) Register(id string, done <-chan struct{}) {
	r.mu.Lock()
	r.entries[id] = &registryEntry{done: done}
	r.mu.Unlock()
}

// RequestCancel raises the cancellation flag and reports whether a live
// entry existed. The flag is write-once true; it is never reset.
func (r *Registry) RequestCancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	entry.cancelled = true
	return true
}

// IsCancelled returns the current flag, false for unknown ids (a task that
// already reached a terminal state has no entry).
func (r *Registry) IsCancelled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	return ok && entry.cancelled
}

// Unregister removes the entry. Called exactly once per task, on its
// terminal transition.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// CancelAll raises the flag for every live entry and returns the count.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		entry.cancelled = true
	}
	return len(r.entries)
}

// LiveIDs returns the ids of all live entries.
func (r *Registry) LiveIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Alive reports whether the task has a live entry whose worker goroutine
// has not yet exited.
func (r *Registry) Alive(id string) bool {
	r.mu.Lock()
	entry, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-entry.done:
		return false
	default:
		return true
	}
}
