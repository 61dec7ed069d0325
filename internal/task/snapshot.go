package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ReducedRecord is the persisted projection of a task record: everything
// except the bulk result payloads, of which only the count survives. The
// conversion is one-way; a restored task is inspectable but never
// resumable.
type ReducedRecord struct {
	ID          string         `json:"task_id"`
	Type        Type           `json:"task_type"`
	Params      map[string]any `json:"task_params,omitempty"`
	Status      Status         `json:"status"`
	Stage       string         `json:"stage,omitempty"`
	Progress    int            `json:"progress"`
	Total       int            `json:"total"`
	ResultCount int            `json:"results_count"`
	DownloadURL string         `json:"download_url,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// reduce projects a live record down to its persisted form.
func reduce(rec Record) ReducedRecord {
	return ReducedRecord{
		ID:          rec.ID,
		Type:        rec.Type,
		Params:      rec.Params,
		Status:      rec.Status,
		Stage:       rec.Stage,
		Progress:    rec.Progress,
		Total:       rec.Total,
		ResultCount: rec.ResultCount,
		DownloadURL: rec.DownloadURL,
		Error:       rec.Error,
		StartedAt:   rec.StartedAt,
		CompletedAt: rec.CompletedAt,
	}
}

// expand turns a restored projection back into a live record with an empty
// result sequence. The record keeps whatever state it was last snapshotted
// in; there is no re-attachment to a worker.
func expand(red ReducedRecord) Record {
	return Record{
		ID:          red.ID,
		Type:        red.Type,
		Params:      red.Params,
		Status:      red.Status,
		Stage:       red.Stage,
		Progress:    red.Progress,
		Total:       red.Total,
		ResultCount: red.ResultCount,
		DownloadURL: red.DownloadURL,
		Error:       red.Error,
		StartedAt:   red.StartedAt,
		CompletedAt: red.CompletedAt,
		Restored:    true,
	}
}

// snapshotFile is the on-disk layout: one reduced record per task id.
type snapshotFile struct {
	SavedAt time.Time                `json:"saved_at"`
	Tasks   map[string]ReducedRecord `json:"tasks"`
}

// Snapshotter persists reduced task projections to a single JSON file.
// Saves rewrite the whole file through a temp-file rename, so readers and
// a crashed writer never observe partial content.
type Snapshotter struct {
	mu      sync.Mutex
	path    string
	lastSeq uint64
}

// NewSnapshotter creates a Snapshotter writing to path.
func NewSnapshotter(path string) *Snapshotter {
	return &Snapshotter{path: path}
}

// Save atomically rewrites the snapshot file with the given records. The
// sequence number orders competing saves: store mutations assign it under
// the store lock, but their hooks run outside it, so a listing can arrive
// here after a newer one has already been written. Such stale listings are
// dropped; without that check an inverted pair could persist a pre-terminal
// state that a restart would then restore forever.
func (s *Snapshotter) Save(seq uint64, records []Record) error {
	file := snapshotFile{
		SavedAt: time.Now(),
		Tasks:   make(map[string]ReducedRecord, len(records)),
	}
	for _, rec := range records {
		file.Tasks[rec.ID] = reduce(rec)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lastSeq {
		return nil
	}
	s.lastSeq = seq

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Restore reads the snapshot file and returns the restored records in
// their original start order. A missing file is not an error; it simply
// yields no records.
func (s *Snapshotter) Restore() ([]Record, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	records := make([]Record, 0, len(file.Tasks))
	for _, red := range file.Tasks {
		records = append(records, expand(red))
	}
	// Map iteration order is random; restore in start order.
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})
	return records, nil
}
