package task

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	s := NewSnapshotter(path)

	started := time.Now().Add(-time.Minute).Truncate(time.Second)
	finished := time.Now().Truncate(time.Second)
	records := []Record{
		{
			ID:        "first",
			Type:      TypeBulkExplanation,
			Params:    map[string]any{"subject_name": "Anatomia"},
			Status:    StatusCompleted,
			Progress:  5,
			Total:     5,
			StartedAt: started,
			Results: []Result{
				{Index: 1, QuestionID: 10, Explanation: "long payload"},
				{Index: 2, QuestionID: 11, Explanation: "another payload"},
			},
			ResultCount:  2,
			LatestResult: &Result{Index: 2, QuestionID: 11},
			CompletedAt:  &finished,
		},
		{
			ID:        "second",
			Type:      TypeMCQGeneration,
			Status:    StatusProcessing,
			Stage:     "Processing window 2 of 7...",
			StartedAt: started.Add(10 * time.Second),
		},
	}

	require.NoError(t, s.Save(1, records))

	restored, err := s.Restore()
	require.NoError(t, err)
	require.Len(t, restored, 2)

	// Start order is preserved.
	assert.Equal(t, "first", restored[0].ID)
	assert.Equal(t, "second", restored[1].ID)

	first := restored[0]
	assert.Equal(t, StatusCompleted, first.Status)
	assert.Equal(t, 5, first.Progress)
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, "Anatomia", first.Params["subject_name"])
	require.NotNil(t, first.CompletedAt)

	// The projection is reduced: payloads are gone, only the count stays.
	assert.Empty(t, first.Results)
	assert.Nil(t, first.LatestResult)
	assert.Equal(t, 2, first.ResultCount)
	assert.True(t, first.Restored)

	// Non-terminal records come back in their last snapshotted state.
	assert.Equal(t, StatusProcessing, restored[1].Status)
	assert.Equal(t, "Processing window 2 of 7...", restored[1].Stage)
}

func TestSnapshotRestore_MissingFile(t *testing.T) {
	s := NewSnapshotter(filepath.Join(t.TempDir(), "absent.json"))
	records, err := s.Restore()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSnapshotRestore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewSnapshotter(path).Restore()
	assert.Error(t, err)
}

func TestSnapshotSave_ReplacesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	s := NewSnapshotter(path)

	require.NoError(t, s.Save(1, []Record{newRecord("a", StatusQueued), newRecord("b", StatusQueued)}))
	require.NoError(t, s.Save(2, []Record{newRecord("a", StatusCompleted)}))

	restored, err := s.Restore()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, "a", restored[0].ID)
	assert.Equal(t, StatusCompleted, restored[0].Status)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tasks.json")
	s := NewSnapshotter(path)

	require.NoError(t, s.Save(1, []Record{newRecord("a", StatusQueued)}))

	restored, err := s.Restore()
	require.NoError(t, err)
	assert.Len(t, restored, 1)
}

func TestSnapshotSave_DropsStaleSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	s := NewSnapshotter(path)

	// A worker finishing a cancellation and the facade that requested it
	// both trigger saves; the store assigns their sequence numbers in
	// mutation order but the hooks race to this point. The older listing
	// still carries the pre-terminal state and must not win.
	require.NoError(t, s.Save(2, []Record{newRecord("a", StatusCancelled)}))
	require.NoError(t, s.Save(1, []Record{newRecord("a", StatusCancelling)}))

	restored, err := s.Restore()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, StatusCancelled, restored[0].Status)
}
