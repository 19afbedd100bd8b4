package jobs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	a := m.CreateJob("benchmark", "b.csv")
	b := m.CreateJob("benchmark", "a.csv")

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, JobPending, a.GetStatus())
	assert.Equal(t, []*Job{a, b}, m.ListJobs())

	got, ok := m.GetJob(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)

	a.SetStatus(JobRunning)
	a.SetProgress(0.5)
	a.AddLog("halfway")
	assert.Equal(t, 0.5, a.GetProgress())
	require.Len(t, a.GetLogs(), 1)
	assert.Contains(t, a.GetLogs()[0], "halfway")

	a.SetStatus(JobCompleted)
	b.SetError(errors.New("fit failed"))
	assert.NotNil(t, a.EndTime)
	assert.EqualError(t, b.GetError(), "fit failed")
	assert.Equal(t, map[JobStatus]int{JobCompleted: 1, JobFailed: 1}, m.Counts())
	assert.Equal(t, []*Job{b}, m.Failed())
}

func TestCancelJob(t *testing.T) {
	m := NewManager()
	j := m.CreateJob("features", "x.csv")

	assert.ErrorIs(t, m.CancelJob("missing"), ErrJobNotFound)
	assert.ErrorIs(t, m.CancelJob(j.ID), ErrJobNotRunning)

	cancelled := false
	j.SetCancelFunc(func() { cancelled = true })
	j.SetStatus(JobRunning)
	require.NoError(t, m.CancelJob(j.ID))
	assert.True(t, cancelled)
	assert.Equal(t, JobCancelled, j.GetStatus())
}
