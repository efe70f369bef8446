package jobs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/store"
)

func TestJournalRecordAndUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	now := time.Now()
	row := &store.JobRow{
		JobID:       "job-1",
		Status:      plan.JobQueued,
		SubmittedAt: now,
	}
	j.Record(row)

	done := now.Add(time.Second)
	row.Status = plan.JobSucceeded
	row.Progress = 1
	row.CompletedAt = &done
	j.Update(row)

	entries, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "job-1", entries[0].JobID)
	assert.Equal(t, string(plan.JobSucceeded), entries[0].Status)
	assert.Equal(t, 1.0, entries[0].Progress)
	require.NotNil(t, entries[0].CompletedAt)
}

func TestJournalRecentOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.Record(&store.JobRow{JobID: "old", Status: plan.JobQueued, SubmittedAt: base})
	j.Record(&store.JobRow{JobID: "new", Status: plan.JobQueued, SubmittedAt: base.Add(time.Minute)})

	entries, err := j.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].JobID)
}

func TestJournalNilIsNoOp(t *testing.T) {
	var j *Journal
	j.Record(&store.JobRow{JobID: "x"})
	j.Update(&store.JobRow{JobID: "x"})
	assert.NoError(t, j.Close())

	entries, err := j.Recent(5)
	assert.NoError(t, err)
	assert.Nil(t, entries)
}

func TestJournalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	j.Record(&store.JobRow{JobID: "persist", Status: plan.JobQueued, SubmittedAt: time.Now()})
	require.NoError(t, j.Close())

	j, err = OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "persist", entries[0].JobID)
}
